package goofish

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCookies(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "cookies.json")
	body := `[
		{"name":"_m_h5_tk","value":"abc"},
		{"name":"cna","value":"x","domain":".taobao.com","path":"/p"},
		{"name":"","value":"skip"},
		{"name":"empty","value":""}
	]`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cs, err := LoadCookies(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cs) != 2 {
		t.Fatalf("cookies = %+v", cs)
	}
	if cs[0].Domain != ".goofish.com" || cs[0].Path != "/" {
		t.Fatalf("defaults = %+v", cs[0])
	}
	if cs[1].Domain != ".taobao.com" || cs[1].Path != "/p" {
		t.Fatalf("explicit = %+v", cs[1])
	}
}

func TestLoadCookies_MissingAndBad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cs, err := LoadCookies(filepath.Join(dir, "nope.json"))
	if err != nil || cs != nil {
		t.Fatalf("missing file: %v %v", cs, err)
	}

	bad := filepath.Join(dir, "bad.json")
	_ = os.WriteFile(bad, []byte("{"), 0o600)
	if _, err := LoadCookies(bad); err == nil {
		t.Fatalf("bad json should fail")
	}
}

func TestSaveCookies_KeepsGoofishOnly(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cookies.json")
	n, err := SaveCookies(path, []Cookie{
		{Name: "a", Value: "1", Domain: ".goofish.com", Path: "/"},
		{Name: "b", Value: "2", Domain: "h5api.m.goofish.com", Path: "/"},
		{Name: "c", Value: "3", Domain: ".taobao.com", Path: "/"},
	})
	if err != nil || n != 2 {
		t.Fatalf("save n=%d err=%v", n, err)
	}
	back, err := LoadCookies(path)
	if err != nil || len(back) != 2 || back[1].Domain != "h5api.m.goofish.com" {
		t.Fatalf("round trip = %+v err %v", back, err)
	}
}

func TestSaveCookies_NothingToWrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cookies.json")
	n, err := SaveCookies(path, []Cookie{{Name: "c", Value: "3", Domain: ".taobao.com"}})
	if err != nil || n != 0 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file should not be created")
	}
}
