// Copyright 2025 Emiliano Spinella (eminwux)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/eminwux/jlab/internal/errdefs"
	"github.com/eminwux/jlab/internal/recent"
	"github.com/eminwux/jlab/pkg/api"
	"go.yaml.in/yaml/v3"
	"golang.org/x/term"
)

const (
	FormatTable = ""
	FormatJSON  = "json"
	FormatYAML  = "yaml"

	NoRunningString  = "no running servers found\n"
	NoLaunchedString = "no launched servers found\n"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

func ValidateFormat(format string) error {
	switch format {
	case FormatTable, FormatJSON, FormatYAML:
		return nil
	default:
		return fmt.Errorf("%w: %q (valid: json, yaml)", errdefs.ErrInvalidOutputFormat, format)
	}
}

// RunningRow is one server reported by `jupyter lab list`. Healthy is set
// only when a health check ran.
type RunningRow struct {
	api.Session `yaml:",inline"`

	Healthy *bool `json:"healthy,omitempty" yaml:"healthy,omitempty"`
}

type LaunchedRow struct {
	Metadata api.SessionMetadata `json:"metadata" yaml:"metadata"`
	Alive    bool                `json:"alive"    yaml:"alive"`
}

func PrintRunning(w io.Writer, rows []RunningRow, format string) error {
	if format != FormatTable {
		return printStructured(w, rows, format)
	}
	if len(rows) == 0 {
		_, err := fmt.Fprint(w, NoRunningString)
		return err
	}

	checked := false
	for _, r := range rows {
		if r.Healthy != nil {
			checked = true
			break
		}
	}

	var buf bytes.Buffer
	//nolint:mnd // tabwriter padding
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	header := "PORT\tTITLE\tFOLDER\tURL"
	if checked {
		header += "\tHEALTH"
	}
	fmt.Fprintln(tw, header)
	for _, r := range rows {
		line := fmt.Sprintf("%s\t%s\t%s\t%s", portString(r.Port), r.Title, r.Folder, r.Link)
		if checked {
			line += "\t" + healthString(r.Healthy)
		}
		fmt.Fprintln(tw, line)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writeTable(w, buf.Bytes())
}

func PrintLaunched(w io.Writer, rows []LaunchedRow, format string) error {
	if format != FormatTable {
		return printStructured(w, rows, format)
	}
	if len(rows) == 0 {
		_, err := fmt.Fprint(w, NoLaunchedString)
		return err
	}

	var buf bytes.Buffer
	//nolint:mnd // tabwriter padding
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPORT\tPID\tSTATE\tPROFILE\tFOLDER\tSTARTED")
	for _, r := range rows {
		m := r.Metadata
		state := m.Status.State.String()
		if m.Status.State != api.Exited && !r.Alive {
			state = "Dead"
		}
		profile := m.Spec.ProfileName
		if profile == "" {
			profile = "-"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\t%s\n",
			m.Spec.ID,
			m.Spec.Port,
			m.Status.Pid,
			state,
			profile,
			m.Spec.Folder,
			m.Status.StartedAt.Local().Format("2006-01-02 15:04:05"),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writeTable(w, buf.Bytes())
}

func PrintProfiles(w io.Writer, profiles []api.LaunchProfileDoc, format string) error {
	if format != FormatTable {
		return printStructured(w, profiles, format)
	}
	if len(profiles) == 0 {
		_, err := fmt.Fprintln(w, "no profiles found")
		return err
	}

	var buf bytes.Buffer
	//nolint:mnd // tabwriter padding
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tJUPYTER\tARGS\tENVVARS")
	for _, p := range profiles {
		jupyter := p.Spec.JupyterBin
		if jupyter == "" && p.Spec.Environment.Path != "" {
			jupyter = fmt.Sprintf("%s:%s", p.Spec.Environment.Type, p.Spec.Environment.Path)
		}
		if jupyter == "" {
			jupyter = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", p.Metadata.Name, jupyter, len(p.Spec.ServerArgs), len(p.Spec.Env))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writeTable(w, buf.Bytes())
}

func PrintRecent(w io.Writer, entries []recent.Entry, format string) error {
	if format != FormatTable {
		return printStructured(w, entries, format)
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "no recent folders")
		return err
	}

	var buf bytes.Buffer
	//nolint:mnd // tabwriter padding
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TITLE\tFOLDER\tOPENED\tCOUNT")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", e.Title, e.Folder, e.OpenedAt.Local().Format("2006-01-02 15:04:05"), e.OpenCount)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writeTable(w, buf.Bytes())
}

// PrintDocument writes v as json or yaml.
func PrintDocument(w io.Writer, v any, format string) error {
	if format == FormatTable {
		format = FormatYAML
	}
	return printStructured(w, v, format)
}

func printStructured(w io.Writer, v any, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		b, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	default:
		return ValidateFormat(format)
	}
}

// writeTable styles the header line when w is a terminal.
func writeTable(w io.Writer, table []byte) error {
	if !isTerminal(w) {
		_, err := w.Write(table)
		return err
	}
	header, rest, _ := strings.Cut(string(table), "\n")
	_, err := fmt.Fprintf(w, "%s\n%s", headerStyle.Render(strings.TrimRight(header, " ")), rest)
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func portString(p *uint16) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprint(*p)
}

func healthString(h *bool) string {
	switch {
	case h == nil:
		return "-"
	case *h:
		return "ok"
	default:
		return "down"
	}
}
