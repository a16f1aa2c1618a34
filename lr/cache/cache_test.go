package cache

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/npillmayer/lrkit/lr"
	"github.com/npillmayer/lrkit/syntax"
	"github.com/npillmayer/schuko/schukonf/testadapter"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func hello(t *testing.T, second string) syntax.Syntax {
	src, err := syntax.FromArrays([][]string{
		{"Start", `"Hello"`, second},
		{syntax.Ignored, "`whitespaces`"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return src
}

func newCache(t *testing.T) *Cache {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestGetStoresAndReloads(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.cache")
	defer teardown()
	//
	c := newCache(t)
	src := hello(t, `"World"`)
	a1, err := c.Get("hello", src)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(c.Path("hello")) != "helloParser.lrt" {
		t.Errorf("unexpected artifact path %s", c.Path("hello"))
	}
	if _, err := os.Stat(c.Path("hello")); err != nil {
		t.Fatalf("expected artifact file: %v", err)
	}
	fp, err := Fingerprint(src)
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := c.load("hello", fp)
	if err != nil {
		t.Fatalf("expected artifact file to be loadable: %v", err)
	}
	if !loaded.Equal(a1) {
		t.Errorf("loaded artifacts differ from built ones")
	}
	a2, err := c.Get("hello", src)
	if err != nil {
		t.Fatal(err)
	}
	if !a1.Equal(a2) {
		t.Errorf("artifacts from cache differ from built ones")
	}
	if _, err := a2.Parse("Hello World", nil); err != nil {
		t.Errorf("cached artifacts should parse: %v", err)
	}
}

func TestInvalidate(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.cache")
	defer teardown()
	//
	c := newCache(t)
	src := hello(t, `"World"`)
	a1, err := c.Get("hello", src)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Invalidate("hello"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(c.Path("hello")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected artifact file to be removed, have %v", err)
	}
	if err := c.Invalidate("hello"); err != nil {
		t.Errorf("invalidating a missing artifact should succeed, have %v", err)
	}
	a2, err := c.Get("hello", src)
	if err != nil {
		t.Fatal(err)
	}
	if !a1.Equal(a2) {
		t.Errorf("rebuilt artifacts differ from first build")
	}
}

func TestChangedRulesAreRebuilt(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.cache")
	defer teardown()
	//
	c := newCache(t)
	if _, err := c.Get("hello", hello(t, `"World"`)); err != nil {
		t.Fatal(err)
	}
	a, err := c.Get("hello", hello(t, `"Universe"`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Parse("Hello Universe", nil); err != nil {
		t.Errorf("expected artifacts for changed rules, have %v", err)
	}
	a, err = c.Get("hello", hello(t, `"Universe"`), syntax.WithStrategy(lr.SLR))
	if err != nil {
		t.Fatal(err)
	}
	if a.Tables.Strategy != lr.SLR {
		t.Errorf("expected artifacts for changed build options")
	}
}

func TestCorruptFileIsRebuilt(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.cache")
	defer teardown()
	//
	c := newCache(t)
	src := hello(t, `"World"`)
	fp, err := Fingerprint(src)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.Path("hello"), []byte("no gob here"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = c.load("hello", fp)
	var cerr *CacheError
	if !errors.As(err, &cerr) || cerr.Op != "decode" {
		t.Errorf("expected a decode error, have %v", err)
	}
	a, err := c.Get("hello", src)
	if err != nil {
		t.Fatalf("corrupt artifact should be rebuilt, have %v", err)
	}
	if _, err := a.Parse("Hello World", nil); err != nil {
		t.Error(err)
	}
	if _, err := c.load("hello", fp); err != nil {
		t.Errorf("expected artifact file to be replaced, have %v", err)
	}
}

func TestConcurrentGet(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.cache")
	defer teardown()
	//
	c := newCache(t)
	src := hello(t, `"World"`)
	results := make([]*syntax.Artifacts, 8)
	errs := make([]error, len(results))
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Get("hello", src)
		}(i)
	}
	wg.Wait()
	for i := range results {
		if errs[i] != nil {
			t.Fatalf("call #%d: %v", i, errs[i])
		}
		if !results[i].Equal(results[0]) {
			t.Errorf("call #%d returned different artifacts", i)
		}
	}
}

func TestGetErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.cache")
	defer teardown()
	//
	c := newCache(t)
	if _, err := c.Get("", hello(t, `"World"`)); err == nil {
		t.Errorf("expected error for empty grammar id")
	}
	bad, err := syntax.FromArrays([][]string{{"S", "Undefined"}})
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Get("bad", bad)
	var gerr *lr.GrammarError
	if !errors.As(err, &gerr) {
		t.Errorf("expected grammar error, have %v", err)
	}
	if _, err := os.Stat(c.Path("bad")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("no artifact should be stored for a broken grammar")
	}
	if base := filepath.Base(c.Path("my/grammar v2")); base != "my_grammar_v2Parser.lrt" {
		t.Errorf("unexpected file name %s", base)
	}
	if _, err := New(""); err == nil {
		t.Errorf("expected error for missing root")
	}
}

func TestDisabled(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.cache")
	defer teardown()
	//
	root := t.TempDir()
	c, err := New(root, WithDisabled(true))
	if err != nil {
		t.Fatal(err)
	}
	a, err := c.Get("hello", hello(t, `"World"`))
	if err != nil || a == nil {
		t.Fatalf("disabled cache should still build, have %v", err)
	}
	if _, err := os.Stat(c.Path("hello")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("disabled cache should not store artifacts")
	}
}

func TestConfig(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.cache")
	defer teardown()
	//
	dir := t.TempDir()
	conf, err := ParseConfig([]byte("lrkit:\n  cache:\n    root: " + dir + "\n    disabled: false\n"))
	if err != nil {
		t.Fatal(err)
	}
	if conf.GetString(KeyRoot) != dir || !conf.IsSet(KeyDisabled) || conf.GetBool(KeyDisabled) {
		t.Errorf("unexpected configuration values")
	}
	c, err := New(DefaultRoot(), ConfigFrom(conf)...)
	if err != nil {
		t.Fatal(err)
	}
	if c.Root() != dir || c.Disabled() {
		t.Errorf("expected cache in %s, have %s", dir, c.Root())
	}
	ta := testadapter.New()
	ta.Set(KeyDisabled, "true")
	c, err = New("", ConfigFrom(ta)...)
	if err != nil || !c.Disabled() {
		t.Errorf("expected disabled cache from configuration, have %v", err)
	}
	if _, err := ParseConfig([]byte("lrkit: [unbalanced")); err == nil {
		t.Errorf("expected error for malformed YAML")
	}
}

func TestDefaultOptions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lrkit.cache")
	defer teardown()
	//
	dir := t.TempDir()
	path := filepath.Join(dir, "lrkit.yaml")
	if err := os.WriteFile(path, []byte("lrkit.cache.root: "+filepath.Join(dir, "fromfile")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	defer restoreEnv(EnvConfig)()
	defer restoreEnv(EnvCacheDir)()
	os.Setenv(EnvConfig, path)
	os.Unsetenv(EnvCacheDir)
	if LocateConfig() != path {
		t.Errorf("expected configuration file from environment")
	}
	opts, err := DefaultOptions()
	if err != nil {
		t.Fatal(err)
	}
	c, err := New(DefaultRoot(), opts...)
	if err != nil {
		t.Fatal(err)
	}
	if c.Root() != filepath.Join(dir, "fromfile") {
		t.Errorf("expected root from configuration file, have %s", c.Root())
	}
	os.Setenv(EnvCacheDir, filepath.Join(dir, "fromenv"))
	if opts, err = DefaultOptions(); err != nil {
		t.Fatal(err)
	}
	if c, err = New(DefaultRoot(), opts...); err != nil {
		t.Fatal(err)
	}
	if c.Root() != filepath.Join(dir, "fromenv") {
		t.Errorf("expected root from environment, have %s", c.Root())
	}
}

func restoreEnv(key string) func() {
	old, ok := os.LookupEnv(key)
	return func() {
		if ok {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	}
}
