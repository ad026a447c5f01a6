//
// Copyright (c) 2018 The heketi Authors
//
// This file is licensed to you under your choice of the GNU Lesser
// General Public License, version 3 or any later version (LGPLv3 or
// later), or the GNU General Public License, version 2 (GPLv2), in all
// cases as published by the Free Software Foundation.
//

package cmds

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/heketi/diskfilter/pkg/disk"
	"github.com/heketi/diskfilter/pkg/diskfilter/api"
)

var templateFuncs = template.FuncMap{
	"size":   sizeString,
	"join":   strings.Join,
	"status": volumeStatus,
	"member": memberString,
}

var volumeInfoTemplate = `Name: {{.Name}}
{{- if .IDName}}
Id name: {{.IDName}}
{{- end}}
Group: {{.Group}} ({{.GroupUUID}})
Driver: {{.Driver}}
Size: {{size .Size}}
Status: {{status .}}
Segments:
{{- range .Segments}}
  Extents {{.StartExtent}}+{{.ExtentCount}} {{.Level}}{{if .Layout}} {{.Layout}}{{end}} stripe {{.StripeSize}}: {{join .Nodes " "}}
{{- end}}
Members:
{{- range .Members}}
  {{member .}}
{{- end}}
`

var groupTemplate = `{{- range .Groups}}Group: {{.Name}} ({{.UUID}})
Driver: {{.Driver}}
Members:
{{- range .Members}}
  {{member .}}
{{- end}}
Volumes:
{{- range .Volumes}}
  {{.Name}} {{size .Size}} {{status .}}
{{- end}}

{{end}}`

// sizeString formats a count of sectors
func sizeString(sectors uint64) string {
	return fmt.Sprintf("%v (%v sectors)",
		humanize.IBytes(sectors*disk.SectorSize), sectors)
}

func volumeStatus(v api.VolumeInfo) string {
	switch {
	case !v.Readable:
		return "unreadable"
	case v.Degraded:
		return "degraded"
	}
	return "ok"
}

func memberString(m api.MemberInfo) string {
	if m.Missing() {
		return fmt.Sprintf("%v missing", m.Name)
	}
	s := fmt.Sprintf("%v on %v (%v)", m.Name, m.Disk, m.DiskType)
	if m.StartSector != 0 {
		s += fmt.Sprintf(" from sector %v", m.StartSector)
	}
	return s
}

// printOutput writes v in the selected output format. Table output
// uses tmpl, or plain formatting when it is empty.
func printOutput(v interface{}, tmpl string) error {
	switch options.Output {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("Unable to marshal output: %v", err)
		}
		fmt.Fprintf(stdout, "%v\n", string(data))
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("Unable to marshal output: %v", err)
		}
		fmt.Fprint(stdout, string(data))
	case "table", "":
		if tmpl == "" {
			fmt.Fprintf(stdout, "%v\n", v)
			return nil
		}
		t, err := template.New("output").Funcs(templateFuncs).Parse(tmpl)
		if err != nil {
			return err
		}
		return t.Execute(stdout, v)
	default:
		return fmt.Errorf("unknown output format %v", options.Output)
	}
	return nil
}
