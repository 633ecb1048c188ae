// © Copyright 2025-2026, Granite Data - https://granite-data.dev
// SPDX-License-Identifier: Apache-2.0

package granite

// Command names used in the granite wire protocol. These appear as the
// command field of request frames.
const (
	CmdArray         = "array"
	CmdCreate        = "create"
	CmdSet           = "set"
	CmdDelete        = "delete"
	CmdToNDArray     = "tondarray"
	CmdArange        = "arange"
	CmdLinspace      = "linspace"
	CmdRandint       = "randint"
	CmdRandomNormal  = "randomNormal"
	CmdRandomStrings = "randomStrings"
	CmdRegister      = "register"
	CmdAttach        = "attach"
	CmdUnregister    = "unregister"
	CmdListRegistry  = "listRegistry"
	CmdGetConfig     = "getconfig"
	CmdUnique        = "unique"
	CmdCoargsort     = "coargsort"
	CmdGroupBy       = "groupby"
	CmdBroadcast     = "broadcast"
	CmdBroadcastStrs = "broadcastStrings"
	CmdSparseSumHelp = "sparseSumHelp"

	// CompositeDelim joins the descriptors of a composite reply
	// (offsets+bytes for strings, indices+values for sparseSumHelp).
	CompositeDelim = "+"

	ProtocolVersion = "1"
)

// Registered object-type tags. Tag comparison is case-insensitive on the
// attach path.
const (
	ObjTypePDArray   = "pdarray"
	ObjTypeStrings   = "strings"
	ObjTypeDatetime  = "datetime"
	ObjTypeTimedelta = "timedelta"
)
