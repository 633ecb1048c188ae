// © Copyright 2025-2026, Granite Data - https://granite-data.dev
// SPDX-License-Identifier: Apache-2.0

package conformance

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/granite-data/granite-go/granite"
)

// isComponent reports whether the array name backs any registry binding.
// Callers hold s.mu.
func (s *Server) isComponent(name string) bool {
	for _, reg := range s.registry {
		for _, comp := range reg.components {
			if comp == name {
				return true
			}
		}
	}
	return false
}

// handleRegister binds a durable name to an object:
// args [name, objType, component...]. A pdarray and the time views over one
// (datetime, timedelta) have one component, a strings composite two (offsets
// then bytes). Rebinding an existing name to a different object is an error;
// re-registering the same object under the same name is idempotent.
func (s *Server) handleRegister(args []string, _ []byte) (string, []byte, error) {
	if len(args) < 3 {
		return "", nil, runtimeErrorf("register expects at least 3 arguments, got %d", len(args))
	}
	name, objType, components := args[0], args[1], args[2:]
	switch objType {
	case granite.ObjTypePDArray, granite.ObjTypeDatetime, granite.ObjTypeTimedelta:
		if len(components) != 1 {
			return "", nil, runtimeErrorf("register: %s takes 1 component, got %d", objType, len(components))
		}
	case granite.ObjTypeStrings:
		if len(components) != 2 {
			return "", nil, runtimeErrorf("register: strings takes 2 components, got %d", len(components))
		}
	default:
		return "", nil, typeErrorf("register: unknown object type %q", objType)
	}
	for _, comp := range components {
		if _, err := s.lookup(comp); err != nil {
			return "", nil, err
		}
	}
	if existing, ok := s.registry[name]; ok {
		same := existing.objType == objType && len(existing.components) == len(components)
		for i := range components {
			same = same && existing.components[i] == components[i]
		}
		if !same {
			return "", nil, runtimeErrorf("register: name already in use: %s", name)
		}
		return "registered " + name, nil, nil
	}
	s.registry[name] = &registration{objType: objType, components: components}
	return "registered " + name, nil, nil
}

// handleAttach resolves a durable name to its creation payload:
// args [name]. Unknown names answer objType "None" rather than an error so
// clients can probe without a failure path.
func (s *Server) handleAttach(args []string, _ []byte) (string, []byte, error) {
	if err := wantArgs(granite.CmdAttach, args, 1); err != nil {
		return "", nil, err
	}
	reg, ok := s.registry[args[0]]
	rep := granite.AttachReply{ObjType: "None"}
	if ok {
		descs := make([]string, len(reg.components))
		for i, comp := range reg.components {
			d, err := s.descriptorFor(comp)
			if err != nil {
				return "", nil, err
			}
			descs[i] = d
		}
		rep = granite.AttachReply{
			ObjType: reg.objType,
			Create:  strings.Join(descs, granite.CompositeDelim),
		}
	}
	body, err := json.Marshal(rep)
	if err != nil {
		return "", nil, runtimeErrorf("encoding attach reply: %v", err)
	}
	return string(body), nil, nil
}

// handleUnregister drops a durable name: args [name]. The confirmation
// names the object type in upper case.
func (s *Server) handleUnregister(args []string, _ []byte) (string, []byte, error) {
	if err := wantArgs(granite.CmdUnregister, args, 1); err != nil {
		return "", nil, err
	}
	reg, ok := s.registry[args[0]]
	if !ok {
		return "", nil, runtimeErrorf("unregister: name not registered: %s", args[0])
	}
	delete(s.registry, args[0])
	return "Unregistered " + strings.ToUpper(reg.objType) + " " + args[0], nil, nil
}

// handleListRegistry answers the full registry state as JSON: the durable
// object names plus the server names of every bound component array.
func (s *Server) handleListRegistry(args []string, _ []byte) (string, []byte, error) {
	if err := wantArgs(granite.CmdListRegistry, args, 0); err != nil {
		return "", nil, err
	}
	listing := struct {
		Objects    []string `json:"Objects"`
		Components []string `json:"Components"`
	}{Objects: []string{}, Components: []string{}}
	for name, reg := range s.registry {
		listing.Objects = append(listing.Objects, name)
		listing.Components = append(listing.Components, reg.components...)
	}
	sort.Strings(listing.Objects)
	sort.Strings(listing.Components)
	body, err := json.Marshal(listing)
	if err != nil {
		return "", nil, runtimeErrorf("encoding registry listing: %v", err)
	}
	return string(body), nil, nil
}

// handleGetConfig answers the server configuration as JSON.
func (s *Server) handleGetConfig(args []string, _ []byte) (string, []byte, error) {
	if err := wantArgs(granite.CmdGetConfig, args, 0); err != nil {
		return "", nil, err
	}
	cfg := map[string]any{
		"serverVersion":   "0.1.0",
		"protocolVersion": granite.ProtocolVersion,
		"arrayCount":      len(s.arrays),
		"registrySize":    len(s.registry),
	}
	body, err := json.Marshal(cfg)
	if err != nil {
		return "", nil, runtimeErrorf("encoding config: %v", err)
	}
	return string(body), nil, nil
}
