// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package cmd

import (
	"errors"
	"io"
	"log/slog"

	"github.com/ostafen/ecsfs/internal/config"
	"github.com/ostafen/ecsfs/internal/ecsfs"
	"github.com/ostafen/ecsfs/internal/logger"
	"github.com/spf13/cobra"
)

const configEnvVar = config.EnvVar

// session bundles what every command needs: the merged configuration and
// the logger built from it.
type session struct {
	cfg    *config.Config
	log    *slog.Logger
	closer io.Closer
}

func newSession(cmd *cobra.Command) (*session, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
		cfg.LogLevel = f.Value.String()
	}
	if f := cmd.Flags().Lookup("log-file"); f != nil && f.Changed {
		cfg.LogFile = f.Value.String()
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	log, closer, err := logger.Setup(cfg.LogFile, level)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, log: log, closer: closer}, nil
}

func (s *session) Close() error {
	return s.closer.Close()
}

// withVolume mounts the image at path, runs fn and unmounts the volume,
// flushing any change fn made.
func withVolume(cmd *cobra.Command, path string, fn func(s *session, v *ecsfs.Volume) error) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	v, err := ecsfs.MountImage(path, ecsfs.WithLogger(s.log))
	if err != nil {
		return err
	}

	err = fn(s, v)
	if unmountErr := v.Unmount(); unmountErr != nil {
		err = errors.Join(err, unmountErr)
	}
	return err
}
