package icons

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/iconreg/internal/compiler"
	"github.com/vk/iconreg/internal/registry"
	"github.com/vk/iconreg/internal/resolve"
	"github.com/vk/iconreg/internal/testutil"
)

type fixture struct {
	root   string
	reg    *registry.Registry
	module *Module
}

func setupModule(t *testing.T, ctx context.Context, files map[string]string, mutate func(*Options)) fixture {
	t.Helper()

	root := t.TempDir()
	testutil.WriteFiles(t, root, files)

	resolver, err := resolve.New(root)
	require.NoError(t, err)
	reg, err := registry.New(filepath.Join(root, ".iconreg"))
	require.NoError(t, err)

	opts := DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	m := New(opts, resolver, compiler.New())
	require.NoError(t, reg.Load(ctx, m))
	return fixture{root: root, reg: reg, module: m}
}

func TestSetup_RegistersTemplateAliasAndComponent(t *testing.T) {
	// --- Arrange ---
	ctx, _ := testutil.LoggerContext(t)

	// --- Act ---
	f := setupModule(t, ctx, map[string]string{
		"assets/icons/arrow-left.svg": testutil.ArrowLeftSVG,
	}, nil)

	// --- Assert ---
	assert.True(t, f.module.Enabled())
	dst, ok := f.reg.ResolveAlias(Alias)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(f.root, ".iconreg", "icons.go"), dst)
	assert.Equal(t, dst, f.module.Destination())
	assert.Equal(t, []registry.Component{{Name: "AppIcon", Export: "AppIcon", FilePath: Alias}}, f.reg.Components())
	assert.Equal(t, "assets/icons/", f.module.WatchPrefix())
}

func TestSetup_MissingDirectoryGeneratesEmptyRegistryUntilCreated(t *testing.T) {
	// --- Arrange ---
	ctx, logs := testutil.LoggerContext(t)
	f := setupModule(t, ctx, nil, func(o *Options) { o.Dev = true })

	require.True(t, f.module.Enabled())
	_, ok := f.reg.ResolveAlias(Alias)
	require.True(t, ok)
	assert.Zero(t, logs.Count("Cannot load icons directory, disabling icon module"))

	// --- Act & Assert: empty artifact ---
	require.NoError(t, f.reg.WriteTemplates(ctx))
	src, err := os.ReadFile(f.module.Destination())
	require.NoError(t, err)
	assert.Contains(t, string(src), "var AppIcon_lookup = map[Icon]templ.Component{}")
	assert.Equal(t, Stats{}, f.module.Stats())
	assert.Equal(t, StateIdle, f.module.State())

	// --- Act & Assert: directory and icon appear later ---
	testutil.WriteFiles(t, f.root, map[string]string{"assets/icons/plus.svg": testutil.ArrowLeftSVG})
	require.NoError(t, f.reg.CallHook(ctx, WatchHook, "assets"))

	src, err = os.ReadFile(f.module.Destination())
	require.NoError(t, err)
	assert.Contains(t, string(src), `IconPlus Icon = "plus"`)
	assert.Equal(t, 1, f.module.Stats().Entries)
}

func TestSetup_LocationThatIsAFileDisablesModule(t *testing.T) {
	// --- Arrange ---
	ctx, logs := testutil.LoggerContext(t)

	// --- Act ---
	f := setupModule(t, ctx, map[string]string{"assets/icons": "not a directory"}, nil)

	// --- Assert ---
	assert.False(t, f.module.Enabled())
	assert.Equal(t, StateDisabled, f.module.State())
	assert.Equal(t, 1, logs.Count("Cannot load icons directory, disabling icon module"))
	assert.Empty(t, f.reg.Templates())
	assert.Empty(t, f.reg.Components())
	_, ok := f.reg.ResolveAlias(Alias)
	assert.False(t, ok)
}

func TestSetup_InvalidNamesFail(t *testing.T) {
	ctx, _ := testutil.LoggerContext(t)
	root := t.TempDir()
	resolver, err := resolve.New(root)
	require.NoError(t, err)
	reg, err := registry.New(root)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.ComponentName = "App-Icon"
	err = New(opts, resolver, compiler.New()).Setup(ctx, reg)

	assert.ErrorContains(t, err, "component name")
}

func TestContents_ValidAndBrokenSources(t *testing.T) {
	// --- Arrange ---
	ctx, logs := testutil.LoggerContext(t)
	f := setupModule(t, ctx, map[string]string{
		"assets/icons/arrow-left.svg": testutil.ArrowLeftSVG,
		"assets/icons/broken.svg":     "",
	}, nil)

	// --- Act ---
	require.NoError(t, f.reg.WriteTemplates(ctx))

	// --- Assert ---
	src, err := os.ReadFile(f.module.Destination())
	require.NoError(t, err)
	text := string(src)
	assert.Contains(t, text, `IconArrowLeft Icon = "arrow-left"`)
	assert.NotContains(t, text, "broken")

	assert.Equal(t, 1, logs.Count("Unable to process icon."))
	assert.Equal(t, 1, logs.Count("broken.svg"))
	assert.Equal(t, Stats{Sources: 2, Entries: 1, Failures: 1}, f.module.Stats())
	assert.Equal(t, StateIdleWithWarnings, f.module.State())
}

func TestContents_EmptyDirectoryProducesEmptyRegistry(t *testing.T) {
	ctx, logs := testutil.LoggerContext(t)
	f := setupModule(t, ctx, map[string]string{"assets/icons/readme.txt": "not an icon"}, nil)

	contents, err := f.reg.Contents(ctx, f.module.Destination())

	require.NoError(t, err)
	assert.Contains(t, contents, "var AppIcon_lookup = map[Icon]templ.Component{}")
	assert.Equal(t, Stats{}, f.module.Stats())
	assert.Equal(t, StateIdle, f.module.State())
	assert.Zero(t, logs.Count("level=WARN"))
}

func TestContents_CollisionDropsLaterFile(t *testing.T) {
	ctx, logs := testutil.LoggerContext(t)
	f := setupModule(t, ctx, map[string]string{
		"assets/icons/arrow-left.svg": testutil.ArrowLeftSVG,
		"assets/icons/arrow_left.svg": testutil.ArrowLeftSVG,
	}, nil)

	contents, err := f.reg.Contents(ctx, f.module.Destination())

	require.NoError(t, err)
	assert.Contains(t, contents, `"arrow-left"`)
	assert.NotContains(t, contents, `"arrow_left"`)
	assert.Equal(t, 1, logs.Count("Unable to register icon."))
	assert.Equal(t, 1, f.module.Stats().Failures)
}

func TestContents_RegenerationIsByteIdentical(t *testing.T) {
	ctx, _ := testutil.LoggerContext(t)
	f := setupModule(t, ctx, map[string]string{
		"assets/icons/arrow-left.svg":    testutil.ArrowLeftSVG,
		"assets/icons/social/github.svg": `<svg viewBox="0 0 16 16"><circle cx="8" cy="8" r="8"/></svg>`,
	}, nil)

	first, err := f.reg.Contents(ctx, f.module.Destination())
	require.NoError(t, err)
	require.NoError(t, f.reg.UpdateTemplates(ctx, nil))
	second, err := f.reg.Contents(ctx, f.module.Destination())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first, `IconSocialGithub Icon = "social/github"`)
}

func TestWatchHook_OnlyPathsUnderPrefixRegenerate(t *testing.T) {
	// --- Arrange ---
	ctx, _ := testutil.LoggerContext(t)
	f := setupModule(t, ctx, map[string]string{
		"assets/icons/arrow-left.svg": testutil.ArrowLeftSVG,
	}, func(o *Options) { o.Dev = true })

	var renders atomic.Int32
	f.reg.OnUpdate(func(context.Context, string, string) { renders.Add(1) })
	require.NoError(t, f.reg.WriteTemplates(ctx))
	require.Equal(t, int32(1), renders.Load())

	// --- Act & Assert ---
	require.NoError(t, f.reg.CallHook(ctx, WatchHook, "src/main.go", "assets/iconsx/a.svg"))
	assert.Equal(t, int32(1), renders.Load(), "paths outside the prefix never regenerate")

	testutil.WriteFiles(t, f.root, map[string]string{"assets/icons/plus.svg": testutil.ArrowLeftSVG})
	require.NoError(t, f.reg.CallHook(ctx, WatchHook, "assets/icons/plus.svg"))
	assert.Equal(t, int32(2), renders.Load())

	src, err := os.ReadFile(f.module.Destination())
	require.NoError(t, err)
	assert.Contains(t, string(src), `IconPlus Icon = "plus"`)
	assert.Contains(t, string(src), `iconrt.New("AppIcon", AppIcon_lookup, true)`)
}

func TestWatchHook_NotRegisteredOutsideDev(t *testing.T) {
	ctx, _ := testutil.LoggerContext(t)
	f := setupModule(t, ctx, map[string]string{
		"assets/icons/arrow-left.svg": testutil.ArrowLeftSVG,
	}, nil)

	var renders atomic.Int32
	f.reg.OnUpdate(func(context.Context, string, string) { renders.Add(1) })
	require.NoError(t, f.reg.CallHook(ctx, WatchHook, "assets/icons/arrow-left.svg"))

	assert.Zero(t, renders.Load())
}

func TestAffects(t *testing.T) {
	assert.True(t, affects("assets/icons/", "assets/icons/a.svg"))
	assert.True(t, affects("assets/icons/", "assets/icons"))
	assert.True(t, affects("assets/icons/", "assets"))
	assert.False(t, affects("assets/icons/", "assets/iconsx/a.svg"))
	assert.False(t, affects("assets/icons/", "assets/style.css"))
	assert.False(t, affects("assets/icons/", "ass"))
	assert.True(t, affects("", "anything.svg"))
}

func TestWatchPrefix(t *testing.T) {
	root := filepath.FromSlash("/project")
	assert.Equal(t, "assets/icons/", watchPrefix(root, filepath.FromSlash("/project/assets/icons/")))
	assert.Equal(t, "", watchPrefix(root, filepath.FromSlash("/project/")))
	assert.Equal(t, "/elsewhere/icons/", watchPrefix(root, filepath.FromSlash("/elsewhere/icons/")))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "disabled", StateDisabled.String())
	assert.Equal(t, "idle-with-warnings", StateIdleWithWarnings.String())
}
