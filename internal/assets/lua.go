package assets

import (
	"context"
	"errors"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"

	appErrors "github.com/zymbit-applications/zb-install/internal/errors"
	"github.com/zymbit-applications/zb-install/internal/platform"
)

// sandboxLuaVM removes the libraries that reach outside the VM:
// os, io, debug and every way of loading more code.
// string, table, math and the basic functions stay available.
func sandboxLuaVM(L *lua.LState) {
	L.SetGlobal("os", lua.LNil)
	L.SetGlobal("io", lua.LNil)

	L.SetGlobal("package", lua.LNil)
	L.SetGlobal("require", lua.LNil)
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("loadfile", lua.LNil)
	L.SetGlobal("load", lua.LNil)
	L.SetGlobal("loadstring", lua.LNil)

	L.SetGlobal("debug", lua.LNil)
}

// scriptTimeout bounds a script when the caller's context has no deadline.
var scriptTimeout = 5 * time.Second

func newSandboxedVM() *lua.LState {
	L := lua.NewState()
	sandboxLuaVM(L)
	return L
}

// ParseLua runs code and reads the global "assets" table it defines:
//
//	assets = {
//	  rpi5 = { software = "zbcli-rpi5", hardware = "zbcli-rpi5-hardware" },
//	}
//
// When info is non-nil it is exposed to the script as the platform global.
// Without a deadline on ctx the script gets 5 seconds.
func ParseLua(ctx context.Context, code string, info *platform.Info) (*Table, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, scriptTimeout)
		defer cancel()
	}

	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if info != nil {
		if err := platform.InjectPlatformTable(L, info); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(code); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, appErrors.New(appErrors.CodeConfiguration, "asset table script timed out", ctx.Err())
		}
		return nil, appErrors.New(appErrors.CodeConfiguration, "asset table script failed", err)
	}

	return extractTable(L)
}

func extractTable(L *lua.LState) (*Table, error) {
	val := L.GetGlobal("assets")
	root, ok := val.(*lua.LTable)
	if !ok {
		return nil, appErrors.New(appErrors.CodeConfiguration,
			fmt.Sprintf("missing or invalid 'assets' table: expected table, got %s", val.Type()), nil)
	}

	raw := map[string]Names{}
	var extractErr error
	root.ForEach(func(key, value lua.LValue) {
		if extractErr != nil {
			return
		}
		if key.Type() != lua.LTString {
			extractErr = fmt.Errorf("board key must be a string, got %s", key.Type())
			return
		}
		// rpi0 = platform.is_rpi0 and {...} or false
		if value == lua.LFalse {
			return
		}
		entry, ok := value.(*lua.LTable)
		if !ok {
			extractErr = fmt.Errorf("entry %q must be a table, got %s", key.String(), value.Type())
			return
		}
		raw[key.String()] = Names{
			Software: stringField(entry, "software"),
			Hardware: stringField(entry, "hardware"),
		}
	})
	if extractErr != nil {
		return nil, appErrors.New(appErrors.CodeConfiguration, "asset table", extractErr)
	}

	return newTable(raw)
}

func stringField(t *lua.LTable, name string) string {
	if v := t.RawGetString(name); v.Type() == lua.LTString {
		return v.String()
	}
	return ""
}
