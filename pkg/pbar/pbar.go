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
package pbar

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const MinRefreshRate = time.Millisecond * 500

const barLength = 20

// Bar renders a single-line progress indicator for a transfer of a known
// number of bytes.
type Bar struct {
	w     io.Writer
	label string

	total int64
	done  int64

	lastUpdate time.Time
	lastDone   int64
}

func New(w io.Writer, label string, total int64) *Bar {
	return &Bar{
		w:          w,
		label:      label,
		total:      total,
		lastUpdate: time.Now(),
	}
}

// Add records n more processed bytes and redraws the bar if the refresh
// interval has elapsed.
func (b *Bar) Add(n int64) {
	b.done += n
	b.Render(false)
}

// Render redraws the bar. Unless force is set, calls closer together than
// MinRefreshRate are ignored.
func (b *Bar) Render(force bool) {
	elapsed := time.Since(b.lastUpdate)
	if !force && elapsed < MinRefreshRate {
		return
	}

	percentage := 100.0
	if b.total > 0 {
		percentage = float64(b.done) / float64(b.total) * 100
	}

	filledLen := min(int(float64(barLength)*percentage/100), barLength)
	var bar string
	if filledLen == barLength {
		bar = strings.Repeat("=", barLength)
	} else {
		bar = strings.Repeat("=", filledLen) + ">" + strings.Repeat(" ", barLength-filledLen-1)
	}

	var speed uint64
	if secs := elapsed.Seconds(); secs > 0 {
		speed = uint64(float64(b.done-b.lastDone) / secs)
	}

	b.lastUpdate = time.Now()
	b.lastDone = b.done

	fmt.Fprintf(b.w, "\r%s: [%s] %3.0f%% (%s/%s) @ %s/s    ",
		b.label,
		bar,
		percentage,
		humanize.IBytes(uint64(b.done)),
		humanize.IBytes(uint64(b.total)),
		humanize.IBytes(speed),
	)
}

// Finish draws the final state and moves to the next line.
func (b *Bar) Finish() {
	b.Render(true)
	fmt.Fprintln(b.w)
}
