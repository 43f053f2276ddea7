// Package bambu implements C6: an MQTT request/response session against a
// Bambu-class printer, correlating responses by sequence id, with
// reconnect and FTPS artifact upload.
package bambu

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kittycad/machine-api/internal/machineerr"
	"github.com/kittycad/machine-api/internal/seqid"
)

const component = "bambu"

// Command is one outbound request. Group is the top-level JSON key
// ("print", "info", "system", "pushing"); Name is the "command" field;
// Params carries the command-specific fields, merged alongside "command"
// and "sequence_id".
type Command struct {
	Group  string
	Name   string
	Params map[string]any
}

// envelope returns a copy of params with command/sequence_id set, wrapped
// under Group and ready to be marshalled. A numeric id is written as a JSON
// integer; any other id (such as the reserved status key) as a string.
func (c Command) envelope(id seqid.ID) map[string]any {
	body := make(map[string]any, len(c.Params)+2)
	for k, v := range c.Params {
		body[k] = v
	}
	body["command"] = c.Name
	if n, err := strconv.ParseUint(id.String(), 10, 32); err == nil {
		body["sequence_id"] = n
	} else {
		body["sequence_id"] = id.String()
	}
	return map[string]any{c.Group: body}
}

// Marshal serialises the command to the wire JSON shape
// `{"<group>": {"command": "<name>", "sequence_id": <id>, ...params}}`.
func (c Command) Marshal(id seqid.ID) ([]byte, error) {
	data, err := json.Marshal(c.envelope(id))
	if err != nil {
		return nil, machineerr.Wrap(machineerr.Protocol, component, fmt.Errorf("marshal command: %w", err))
	}
	return data, nil
}

// ParseCommand parses a single-group command envelope back into a Command
// and its sequence id, the inverse of Marshal. Used for the round-trip
// property: marshal then parse yields the same (group, name, params, id).
func ParseCommand(data []byte) (Command, seqid.ID, error) {
	var outer map[string]map[string]any
	if err := json.Unmarshal(data, &outer); err != nil {
		return Command{}, seqid.ID{}, machineerr.Wrap(machineerr.Protocol, component, fmt.Errorf("unmarshal command: %w", err))
	}
	if len(outer) != 1 {
		return Command{}, seqid.ID{}, machineerr.New(machineerr.Protocol, component, "command envelope must have exactly one top-level group")
	}

	var group string
	var body map[string]any
	for k, v := range outer {
		group, body = k, v
	}

	name, _ := body["command"].(string)
	var id seqid.ID
	switch v := body["sequence_id"].(type) {
	case string:
		id = seqid.FromString(v)
	case float64:
		id = seqid.FromInt(uint32(v))
	}

	params := make(map[string]any, len(body))
	for k, v := range body {
		if k == "command" || k == "sequence_id" {
			continue
		}
		params[k] = v
	}

	return Command{Group: group, Name: name, Params: params}, id, nil
}

// Command constructors matching §4.3's supported command list.

func InfoGetVersion() Command {
	return Command{Group: "info", Name: "get_version"}
}

func PushingPushAll() Command {
	return Command{Group: "pushing", Name: "pushall"}
}

func PushingStart() Command {
	return Command{Group: "pushing", Name: "start"}
}

func PrintPause() Command {
	return Command{Group: "print", Name: "pause"}
}

func PrintResume() Command {
	return Command{Group: "print", Name: "resume"}
}

func PrintStop() Command {
	return Command{Group: "print", Name: "stop"}
}

func PrintSpeed(level int) Command {
	return Command{Group: "print", Name: "print_speed", Params: map[string]any{"param": level}}
}

func PrintGcodeLine(line string) Command {
	return Command{Group: "print", Name: "gcode_line", Params: map[string]any{"param": line}}
}

// PrintProjectFile builds the project_file command. param hardcodes the
// well-known plate path; url is built from filename; useAMS is decided by
// the caller from a capability probe against the last-known push-status
// (ams_exist_bits != "0") rather than hardcoded true, per the spec's
// documented improvement over the reference firmware behavior.
func PrintProjectFile(filename string, useAMS bool) Command {
	return Command{
		Group: "print",
		Name:  "project_file",
		Params: map[string]any{
			"param":   "Metadata/plate_1.gcode",
			"url":     "ftp://" + filename,
			"use_ams": useAMS,
		},
	}
}

func SystemLedCtrl(led string, on bool) Command {
	return Command{Group: "system", Name: "ledctrl", Params: map[string]any{"led_node": led, "led_mode": on}}
}

func SystemGetAccessories() Command {
	return Command{Group: "system", Name: "get_accessories"}
}
