package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"wakeup-checker/internal/decoder"
	"wakeup-checker/internal/recommend"
)

func TestCollectAudioFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.wav", "b.MP3", "notes.txt", filepath.Join("sub", "c.flac"), "noext"} {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	files, err := collectAudioFiles(dir, decoder.NewDecoderRegistry())
	if err != nil {
		t.Fatalf("collectAudioFiles: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.wav"),
		filepath.Join(dir, "b.MP3"),
		filepath.Join(dir, "sub", "c.flac"),
	}
	if !reflect.DeepEqual(files, want) {
		t.Fatalf("got %v want %v", files, want)
	}
}

func TestRecommendCommandJSON(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"recommend", "--genre", "ambient", "--json"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		genre = ""
		recommendJSON = false
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	var recs []recommend.Recommendation
	if err := json.Unmarshal(out.Bytes(), &recs); err != nil {
		t.Fatalf("decode output %q: %v", out.String(), err)
	}
	if len(recs) != 1 || recs[0].Title != "Morning Breeze" {
		t.Fatalf("unexpected recommendations %+v", recs)
	}
}

func TestConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		initOverwrite = false
		initPath = ""
	})

	rootCmd.SetArgs([]string{"config", "init", "--path", target})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[analysis]") {
		t.Fatalf("sample config missing analysis section")
	}

	rootCmd.SetArgs([]string{"config", "init", "--path", target})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected error when the file exists without --overwrite")
	}

	rootCmd.SetArgs([]string{"config", "init", "--path", target, "--overwrite"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestRunAnalysisMissingPath(t *testing.T) {
	rootCmd.SetArgs([]string{filepath.Join(t.TempDir(), "missing")})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "路径不存在") {
		t.Fatalf("expected missing path error, got %v", err)
	}
}

func TestTableExcludesQuietAndJSON(t *testing.T) {
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		for _, name := range []string{"quiet", "json", "table"} {
			flag := rootCmd.Flags().Lookup(name)
			_ = flag.Value.Set("false")
			flag.Changed = false
		}
	})

	for _, other := range []string{"--quiet", "--json"} {
		rootCmd.SetArgs([]string{other, "--table", t.TempDir()})
		err := rootCmd.Execute()
		if err == nil || !strings.Contains(err.Error(), "table") {
			t.Fatalf("%s with --table: expected mutually exclusive error, got %v", other, err)
		}
		for _, name := range []string{"quiet", "json", "table"} {
			rootCmd.Flags().Lookup(name).Changed = false
		}
	}
}
