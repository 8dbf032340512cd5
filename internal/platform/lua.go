package platform

import (
	lua "github.com/yuin/gopher-lua"
)

// InjectPlatformTable creates a read-only platform table and injects it into the Lua state as a global.
// This should be called before loading any asset table script.
func InjectPlatformTable(L *lua.LState, info *Info) error {
	platformTable := L.NewTable()

	L.SetField(platformTable, "tag", lua.LString(info.Tag))
	L.SetField(platformTable, "model", lua.LString(info.Model))
	L.SetField(platformTable, "os", lua.LString(info.OS))
	L.SetField(platformTable, "distro", lua.LString(info.Distro))
	L.SetField(platformTable, "distro_version", lua.LString(info.DistroVersion))
	L.SetField(platformTable, "arch", lua.LString(info.Arch))
	L.SetField(platformTable, "module", lua.LString(info.Module))
	L.SetField(platformTable, "kernel", lua.LString(info.Kernel()))
	L.SetField(platformTable, "overridden", lua.LBool(info.Overridden))

	L.SetField(platformTable, "is_rpi0", lua.LBool(info.Tag == TagRpi0))
	L.SetField(platformTable, "is_rpi4", lua.LBool(info.Tag == TagRpi4))
	L.SetField(platformTable, "is_rpi5", lua.LBool(info.Tag == TagRpi5))
	L.SetField(platformTable, "has_scm", lua.LBool(info.HasSCM()))

	// when(condition, value) returns value if condition is true, nil otherwise
	whenFunc := L.NewFunction(func(L *lua.LState) int {
		cond := L.CheckBool(1)
		value := L.Get(2)
		if cond {
			L.Push(value)
		} else {
			L.Push(lua.LNil)
		}
		return 1
	})
	L.SetField(platformTable, "when", whenFunc)

	L.SetGlobal("platform", makeReadOnly(L, platformTable))

	return nil
}

// makeReadOnly returns a proxy that redirects reads to table and rejects all writes.
func makeReadOnly(L *lua.LState, table *lua.LTable) *lua.LTable {
	mt := L.NewTable()
	L.SetField(mt, "__index", table)
	L.SetField(mt, "__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("platform table is read-only and cannot be modified")
		return 0
	}))
	L.SetField(mt, "__metatable", lua.LString("protected"))

	proxy := L.NewTable()
	L.SetMetatable(proxy, mt)
	return proxy
}
