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
// Package dfxml writes and reads Digital Forensics XML documents describing
// where the bytes of each file live inside a disk image.
package dfxml

import (
	"encoding/xml"
	"os"
	"os/user"
	"runtime"
	"time"
)

const XmlOutputVersion = "1.0"

var DefaultMetadata = Metadata{
	Xmlns:    "http://www.forensicswiki.org/wiki/Category:Digital_Forensics_XML",
	XmlnsXsi: "http://www.w3.org/2001/XMLSchema-instance",
	XmlnsDC:  "http://purl.org/dc/elements/1.1/",
	Type:     "File Layout Report",
}

// Header holds the elements written before the first fileobject.
type Header struct {
	Metadata Metadata
	Creator  Creator
	Source   Source
}

type Metadata struct {
	XMLName  xml.Name `xml:"metadata"`
	Xmlns    string   `xml:"xmlns,attr"`
	XmlnsXsi string   `xml:"xmlns:xsi,attr"`
	XmlnsDC  string   `xml:"xmlns:dc,attr"`
	Type     string   `xml:"dc:type"`
}

type Creator struct {
	XMLName              xml.Name `xml:"creator"`
	Package              string   `xml:"package"`
	Version              string   `xml:"version"`
	ExecutionEnvironment ExecEnv  `xml:"execution_environment"`
}

type ExecEnv struct {
	OS    string `xml:"os_sysname"`
	Host  string `xml:"host"`
	Arch  string `xml:"arch"`
	UID   string `xml:"uid"`
	Start string `xml:"start_time"`
}

// Source describes the image the byte runs point into.
type Source struct {
	XMLName       xml.Name `xml:"source"`
	ImageFilename string   `xml:"image_filename"`
	SectorSize    int      `xml:"sectorsize"`
	ImageSize     uint64   `xml:"image_size"`
}

type FileObject struct {
	XMLName  xml.Name `xml:"fileobject"`
	Filename string   `xml:"filename"`
	FileSize uint64   `xml:"filesize"`
	ByteRuns ByteRuns `xml:"byte_runs"`
}

type ByteRuns struct {
	Runs []ByteRun `xml:"byte_run"`
}

// ByteRun maps Length bytes at Offset within the file to ImgOffset within
// the image.
type ByteRun struct {
	Offset    uint64 `xml:"offset,attr"`
	ImgOffset uint64 `xml:"img_offset,attr"`
	Length    uint64 `xml:"len,attr"`
}

// Coalesce merges runs that are contiguous both in the file and in the
// image. The input must be ordered by file offset.
func Coalesce(runs []ByteRun) []ByteRun {
	var out []ByteRun
	for _, r := range runs {
		if n := len(out); n > 0 {
			last := &out[n-1]
			if last.Offset+last.Length == r.Offset && last.ImgOffset+last.Length == r.ImgOffset {
				last.Length += r.Length
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// GetExecEnv describes the host running the export.
func GetExecEnv() ExecEnv {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown_host"
	}

	uid := ""
	if u, err := user.Current(); err == nil {
		uid = u.Uid
	}

	return ExecEnv{
		OS:    runtime.GOOS,
		Host:  host,
		Arch:  runtime.GOARCH,
		UID:   uid,
		Start: time.Now().UTC().Format(time.RFC3339),
	}
}
