// © Copyright 2025-2026, Granite Data - https://granite-data.dev
// SPDX-License-Identifier: Apache-2.0

package granite

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// attachCtor builds a handle of one object kind from its creation payload.
type attachCtor func(c *Client, create string) (Object, error)

// attachRegistry is the closed set of object kinds Attach can reconstruct,
// keyed by lowercase type tag. Adding a handle kind means adding one
// constructor entry here, not editing a dispatch chain.
var attachRegistry = map[string]attachCtor{
	ObjTypePDArray: func(c *Client, create string) (Object, error) {
		return arrayFromDescriptor(c, create)
	},
	ObjTypeStrings: func(c *Client, create string) (Object, error) {
		return stringsFromDescriptor(c, create)
	},
	ObjTypeDatetime: func(c *Client, create string) (Object, error) {
		return datetimeFromDescriptor(c, create)
	},
	ObjTypeTimedelta: func(c *Client, create string) (Object, error) {
		return timedeltaFromDescriptor(c, create)
	},
}

// Register associates obj with a durable name on the server and returns the
// same object. Registered objects outlive the client session and survive
// Destroy; they persist until explicitly unregistered. Registration is
// polymorphic over the handle kind. The server rejects a name that collides
// with an existing registration of incompatible type.
func (c *Client) Register(ctx context.Context, obj Object, name string) (Object, error) {
	if obj == nil {
		return nil, typeErrorf("cannot register nil object")
	}
	if name == "" {
		return nil, valueErrorf("registration name must not be empty")
	}
	if err := obj.register(ctx, name); err != nil {
		return nil, err
	}
	return obj, nil
}

// Attach recovers a registered object by name. The reply's objType tag is
// matched case-insensitively against the known handle kinds; an unknown tag
// (including the tag servers answer for names that are not registered)
// yields (nil, nil) rather than an error. Callers must treat an absent
// result as "name not found or unsupported type" — this soft miss is a
// deliberate exception to the error-raising policy.
func (c *Client) Attach(ctx context.Context, name string) (Object, error) {
	reply, err := c.send(ctx, CmdAttach, []string{name}, nil)
	if err != nil {
		return nil, err
	}
	rep, err := ParseAttachReply(reply.Text)
	if err != nil {
		return nil, err
	}
	ctor, ok := attachRegistry[strings.ToLower(rep.ObjType)]
	if !ok {
		return nil, nil
	}
	return ctor(c, rep.Create)
}

// Unregister removes a durable name from the server registry and returns the
// server's confirmation text. Unregistering a name that is not registered is
// a runtime error reported by the server.
func (c *Client) Unregister(ctx context.Context, name string) (string, error) {
	reply, err := c.send(ctx, CmdUnregister, []string{name}, nil)
	if err != nil {
		return "", err
	}
	return reply.Text, nil
}

// registryListing is the JSON body of a listRegistry reply.
type registryListing struct {
	Objects    []string `json:"Objects"`
	Components []string `json:"Components"`
}

// IsRegistered reports whether name is present in the server registry. With
// asComponent set, the component-membership registry is consulted instead of
// the top-level object registry.
func (c *Client) IsRegistered(ctx context.Context, name string, asComponent bool) (bool, error) {
	reply, err := c.send(ctx, CmdListRegistry, nil, nil)
	if err != nil {
		return false, err
	}
	var listing registryListing
	if err := json.Unmarshal([]byte(reply.Text), &listing); err != nil {
		return false, protocolErrorf("malformed registry listing %q: %v", reply.Text, err)
	}
	pool := listing.Objects
	if asComponent {
		pool = listing.Components
	}
	for _, n := range pool {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// RegisterAll registers every object in the mapping under its key. The batch
// is best-effort: each registration is an independent call, a failing item
// does not stop the remaining ones, and prior successes are not rolled back.
// The returned error joins the per-item failures, if any.
func (c *Client) RegisterAll(ctx context.Context, mapping map[string]Object) error {
	var errs []error
	for name, obj := range mapping {
		if _, err := c.Register(ctx, obj, name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// UnregisterAll unregisters every name, best-effort per item. The returned
// error joins the per-item failures, if any.
func (c *Client) UnregisterAll(ctx context.Context, names []string) error {
	var errs []error
	for _, name := range names {
		if _, err := c.Unregister(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AttachAll attaches every name and returns a name-to-object mapping.
// Absent results (soft misses) appear as nil values.
func (c *Client) AttachAll(ctx context.Context, names []string) (map[string]Object, error) {
	out := make(map[string]Object, len(names))
	for _, name := range names {
		obj, err := c.Attach(ctx, name)
		if err != nil {
			return nil, err
		}
		out[name] = obj
	}
	return out, nil
}
