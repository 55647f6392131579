package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"evmlens/internal/sigdb"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestConversionCommands(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"units", "1.5", "--from", "ether", "--to", "gwei"}, "1500000000"},
		{[]string{"units", "1", "--from", "wei", "--to", "ether"}, "0.000000000000000001"},
		{[]string{"base", "0xff"}, "255"},
		{[]string{"base", "255", "--from", "decimal", "--to", "binary"}, "11111111"},
		{[]string{"ascii", "0x48656c6c6f00"}, "Hello."},
	}
	for _, tc := range cases {
		out, err := runCommand(t, tc.args...)
		if err != nil {
			t.Fatalf("%v: %v", tc.args, err)
		}
		if strings.TrimSpace(out) != tc.want {
			t.Fatalf("%v: got %q, want %q", tc.args, out, tc.want)
		}
	}

	if _, err := runCommand(t, "units", "1.5", "--from", "wei", "--to", "ether"); err == nil {
		t.Fatalf("expected error for fractional wei")
	}
}

func TestTokenAmountCommand(t *testing.T) {
	out, err := runCommand(t, "token-amount", "1234567", "--decimals", "6")
	if err != nil {
		t.Fatalf("token-amount: %v", err)
	}
	if !strings.Contains(out, `"formatted": "1.234567"`) {
		t.Fatalf("unexpected output: %s", out)
	}
	if _, err := runCommand(t, "token-amount", "12"); err == nil {
		t.Fatalf("expected error without decimals or address")
	}
}

func TestDisasmCommand(t *testing.T) {
	out, err := runCommand(t, "disasm", "--code", "0x6080604052")
	if err != nil {
		t.Fatalf("disasm: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 || !strings.Contains(lines[2], "MSTORE") {
		t.Fatalf("disassembly mismatch: %q", out)
	}

	if _, err := runCommand(t, "disasm"); err == nil {
		t.Fatalf("expected error without code")
	}
}

func TestDecodeCallCommandOffline(t *testing.T) {
	data := "0xa9059cbb" +
		"0000000000000000000000002222222222222222222222222222222222222222" +
		"00000000000000000000000000000000000000000000000000000000000003e8"
	out, err := runCommand(t, "decode-call", "--data", data, "--offline", "--int-base", "hex")
	if err != nil {
		t.Fatalf("decode-call: %v", err)
	}
	if !strings.Contains(out, `"signature": "transfer(address,uint256)"`) || !strings.Contains(out, `"0x3e8"`) {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestReadSignatures(t *testing.T) {
	input := strings.Join([]string{
		"# comment",
		"transfer(address,uint256)",
		"event Staked(address indexed user, uint256 amount)",
		`{"kind":"function","hash":"0x12345678","signature":"custom()"}`,
		"",
	}, "\n")

	dataset := sigdb.NewStatic()
	if err := readSignatures(strings.NewReader(input), dataset); err != nil {
		t.Fatalf("read signatures: %v", err)
	}
	if n := len(dataset.Entries()); n != 3 {
		t.Fatalf("expected 3 entries, got %d", n)
	}

	if err := readSignatures(strings.NewReader("not a signature"), sigdb.NewStatic()); err == nil {
		t.Fatalf("expected error for bad line")
	}
}

func TestBlockAtResultGenesis(t *testing.T) {
	raw, err := json.Marshal(newBlockAtResult(1438269973, 0, true))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"block_number":0`) || !strings.Contains(string(raw), `"found":true`) {
		t.Fatalf("genesis result lost its block number: %s", raw)
	}
}
