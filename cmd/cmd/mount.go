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
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ostafen/ecsfs/internal/ecsfs"
	"github.com/ostafen/ecsfs/internal/fuse"
	"github.com/spf13/cobra"
)

func DefineMountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mount <image_path>",
		Short: "Mount a volume to a specified mountpoint",
		Long: `The 'mount' command serves the root directory of an ECS150FS volume through FUSE.
Files can be listed, created, read, written, truncated and removed. The command blocks until
it receives SIGINT or SIGTERM, then unmounts the mountpoint and flushes the volume.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunMount,
	}

	cmd.Flags().StringP("mountpoint", "m", "", "Path of the directory where the volume will be mounted. If not specified, a default will be generated.")
	return cmd
}

func RunMount(cmd *cobra.Command, args []string) error {
	return withVolume(cmd, args[0], func(s *session, v *ecsfs.Volume) error {
		mountpoint, _ := cmd.Flags().GetString("mountpoint")
		if mountpoint == "" {
			mountpoint = s.cfg.Mount.Mountpoint
		}
		if mountpoint == "" {
			mountpoint = getMountpoint(args[0])
		}

		s.log.Info("mounting volume", "image", args[0], "mountpoint", mountpoint)
		fmt.Fprintf(cmd.OutOrStdout(), "Serving %s at %s\n", args[0], mountpoint)
		return fuse.Mount(mountpoint, v, s.log)
	})
}

// getMountpoint generates a mountpoint name from an image file name by stripping the extension.
// If the extension is empty, "_mnt" is added.
func getMountpoint(imagePath string) string {
	baseName := filepath.Base(imagePath)
	ext := filepath.Ext(baseName)
	mountpoint := strings.TrimSuffix(baseName, ext)
	if ext == "" {
		mountpoint += "_mnt"
	}
	return mountpoint
}
