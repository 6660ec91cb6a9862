/*
Copyright © 2025 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	hyperplatform "github.com/blacktop/go-hyperplatform"
	"github.com/blacktop/go-hyperplatform/internal/host"
	"github.com/blacktop/go-hyperplatform/internal/vm"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

// CheckReport is what the check command prints.
type CheckReport struct {
	Version          string `json:"version" yaml:"version"`
	Is64Bit          bool   `json:"is_64bit" yaml:"is_64bit"`
	SystemRangeStart string `json:"system_range_start" yaml:"system_range_start"`
	Supported        bool   `json:"supported" yaml:"supported"`
	Reason           string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Virtualization   string `json:"virtualization" yaml:"virtualization"`
}

func (r CheckReport) Headers() []string { return []string{"check", "result"} }

func (r CheckReport) Rows() [][]string {
	virt := r.Virtualization
	if virt == "" {
		virt = "not present"
	}
	rows := [][]string{
		{"os version", r.Version},
		{"64-bit", strconv.FormatBool(r.Is64Bit)},
		{"system range start", r.SystemRangeStart},
		{"supported", strconv.FormatBool(r.Supported)},
	}
	if r.Reason != "" {
		rows = append(rows, []string{"reason", r.Reason})
	}
	return append(rows, []string{"virtualization", virt})
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether this host passes the compatibility gate",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		p, err := printer(cmd)
		if err != nil {
			return err
		}
		sys := host.NewSystem()
		return p.Print(check(sys, hyperplatform.Gate{
			SupportedMajors:  cfg.Compat.SupportedMajors,
			SystemRangeStart: uintptr(cfg.Compat.SystemRangeStart),
		}))
	},
}

func check(sys *host.System, gate hyperplatform.Gate) CheckReport {
	r := CheckReport{
		Is64Bit:          sys.Is64Bit(),
		SystemRangeStart: fmt.Sprintf("%#x", sys.SystemRangeStart()),
		Virtualization:   (&vm.HostBackend{}).Feature(),
	}
	if v, err := sys.Version(); err == nil {
		r.Version = v.String()
	} else {
		r.Version = "unknown"
	}
	ok, err := gate.Supported(sys)
	r.Supported = ok
	if err != nil {
		r.Reason = err.Error()
	}
	return r
}
