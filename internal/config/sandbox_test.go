package config

import (
	"strings"
	"testing"
)

func TestSandboxLuaVM(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr bool
		errMsg  string
	}{
		{name: "string library allowed", code: `x = string.format("-Xmx%dm", 512)`},
		{name: "table library allowed", code: `t = {"a"}; table.insert(t, "b"); s = table.concat(t, ",")`},
		{name: "math library allowed", code: `x = math.floor(21.9)`},
		{name: "pairs allowed", code: `for k, v in pairs({a = 1}) do end`},

		{name: "os.execute blocked", code: `os.execute("ls")`, wantErr: true, errMsg: "attempt to index"},
		{name: "os.getenv blocked", code: `x = os.getenv("HOME")`, wantErr: true, errMsg: "attempt to index"},
		{name: "io.open blocked", code: `f = io.open("/etc/passwd")`, wantErr: true, errMsg: "attempt to index"},
		{name: "require blocked", code: `m = require("socket")`, wantErr: true, errMsg: "attempt to call"},
		{name: "dofile blocked", code: `dofile("/tmp/x.lua")`, wantErr: true, errMsg: "attempt to call"},
		{name: "loadfile blocked", code: `f = loadfile("/tmp/x.lua")`, wantErr: true, errMsg: "attempt to call"},
		{name: "load blocked", code: `f = load("return 1")`, wantErr: true, errMsg: "attempt to call"},
		{name: "loadstring blocked", code: `f = loadstring("return 1")`, wantErr: true, errMsg: "attempt to call"},
		{name: "debug blocked", code: `debug.getinfo(1)`, wantErr: true, errMsg: "attempt to index"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			L := newSandboxedVM()
			defer L.Close()

			err := L.DoString(tt.code)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DoString(%q) error = %v, wantErr %v", tt.code, err, tt.wantErr)
			}
			if tt.wantErr && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("DoString(%q) error = %v, want substring %q", tt.code, err, tt.errMsg)
			}
		})
	}
}
