package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamusis/mansh/internal/cache"
	"github.com/kamusis/mansh/internal/embeddings"
	"github.com/kamusis/mansh/internal/manpage"
)

type scriptedPrompter struct {
	lines   []string
	keys    []rune
	prompts []string
}

func (p *scriptedPrompter) ReadLine(prompt string) (string, error) {
	p.prompts = append(p.prompts, prompt)
	if len(p.lines) == 0 {
		return "", io.EOF
	}
	l := p.lines[0]
	p.lines = p.lines[1:]
	return l, nil
}

func (p *scriptedPrompter) ReadKey(prompt string) (rune, error) {
	p.prompts = append(p.prompts, prompt)
	if len(p.keys) == 0 {
		return 0, io.EOF
	}
	k := p.keys[0]
	p.keys = p.keys[1:]
	return k, nil
}

type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) Fetch(ctx context.Context, command, delimiter string) ([]string, error) {
	page, ok := f.pages[command]
	if !ok {
		return nil, fmt.Errorf("%w: %s", manpage.ErrNotFound, command)
	}
	return manpage.Split(page, delimiter), nil
}

const (
	lsTitle  = "LS(1)"
	lsName   = "NAME\n    ls - list directory contents"
	lsAll    = "    -a, --all\n        do not ignore entries starting with ."
	lsPage   = lsTitle + "\n\n" + lsName + "\n\n" + lsAll + "\n\n"
	lsQuery  = "list hidden files"
	tinyName = "mock:tiny"
)

type fixture struct {
	store    *cache.Store
	prompter *scriptedPrompter
	out      *bytes.Buffer
	sess     *Session
}

func newSession(t *testing.T, lines []string, keys []rune) *fixture {
	t.Helper()
	store := cache.NewStore(filepath.Join(t.TempDir(), "cache"), time.Second, nil)
	f := &fixture{
		store:    store,
		prompter: &scriptedPrompter{lines: lines, keys: keys},
		out:      &bytes.Buffer{},
	}
	factory := func(model string) (embeddings.Provider, error) {
		if strings.HasPrefix(model, "bad:") {
			return nil, fmt.Errorf("unknown model %s", model)
		}
		m := embeddings.NewMockProvider(model, 3)
		m.Fixed[lsTitle] = []float32{0, 0, 1}
		m.Fixed[lsName] = []float32{0, 1, 0}
		m.Fixed[lsAll] = []float32{1, 0, 0}
		m.Fixed[lsQuery] = []float32{0.9, 0.1, 0}
		return m, nil
	}
	sess, err := Open(context.Background(), Options{
		Store:       store,
		Fetcher:     &fakeFetcher{pages: map[string]string{"ls": lsPage}},
		NewProvider: factory,
		Model:       tinyName,
		Delimiter:   "\n\n",
		Delimiters:  []string{"\n\n", "\n", "\n\n\n"},
		MaxResults:  2,
		Prompter:    f.prompter,
		Stdin:       strings.NewReader(""),
		Out:         f.out,
	})
	require.NoError(t, err)
	f.sess = sess
	return f
}

func TestOpen_CreatesCacheFile(t *testing.T) {
	f := newSession(t, nil, nil)
	assert.FileExists(t, f.store.Path(tinyName))
	assert.Equal(t, tinyName, f.sess.Model())
	assert.Equal(t, "\n\n", f.sess.Delimiter())
	assert.False(t, f.sess.Dirty())
}

func TestOpen_RequiresDependencies(t *testing.T) {
	_, err := Open(context.Background(), Options{Model: tinyName})
	require.Error(t, err)
}

func TestSearch_RanksAndSuggests(t *testing.T) {
	f := newSession(t, nil, nil)

	res, err := f.sess.Search(context.Background(), "ls", lsQuery)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Equal(t, 2, res.Len())
	assert.Equal(t, lsAll, res.Paragraphs[0])
	assert.True(t, f.sess.Dirty())

	f.sess.Render("ls", res)
	assert.Contains(t, f.out.String(), "do not ignore entries")
	assert.Contains(t, f.out.String(), "Suggested: ls -a")
	assert.Equal(t, "ls -a", f.sess.LastSuggestion())
}

func TestSearch_NotFound(t *testing.T) {
	f := newSession(t, nil, nil)

	res, err := f.sess.Search(context.Background(), "nosuchcmd", "anything")
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Contains(t, f.out.String(), "No man page found for nosuchcmd")
	assert.Empty(t, f.sess.Cache().Commands)
	assert.False(t, f.sess.Dirty())
}

func TestConfirmPersist(t *testing.T) {
	f := newSession(t, nil, []rune{'n', 'Y'})

	saved, err := f.sess.ConfirmPersist()
	require.NoError(t, err)
	assert.False(t, saved, "clean cache is never written")
	assert.Empty(t, f.prompter.prompts)

	_, err = f.sess.Search(context.Background(), "ls", lsQuery)
	require.NoError(t, err)

	saved, err = f.sess.ConfirmPersist()
	require.NoError(t, err)
	assert.False(t, saved)
	assert.True(t, f.sess.Dirty())
	onDisk, err := f.store.Load(tinyName)
	require.NoError(t, err)
	assert.Empty(t, onDisk.Commands)
	assert.Contains(t, f.out.String(), "Not saved!")

	saved, err = f.sess.ConfirmPersist()
	require.NoError(t, err)
	assert.True(t, saved)
	assert.False(t, f.sess.Dirty())
	onDisk, err = f.store.Load(tinyName)
	require.NoError(t, err)
	assert.Equal(t, []string{"ls"}, onDisk.Names())
	assert.Contains(t, f.prompter.prompts, "Data was updated. Cache it for future? (Yes[y]/No[any other key]) : ")
}

func TestChooseOption(t *testing.T) {
	options := []string{"\n\n", "\n", "\n\n\n"}

	p := &scriptedPrompter{lines: []string{"7", "x", "1"}}
	var out bytes.Buffer
	v, changed, err := ChooseOption(p, &out, options, "\n\n")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "\n", v)
	assert.Contains(t, out.String(), "Available options :\n*[0] : \"\\n\\n\"\n [1] : \"\\n\"\n")
	assert.Equal(t, 2, strings.Count(out.String(), "Error : ID needs to be one of - [0, 1, 2]"))

	out.Reset()
	p = &scriptedPrompter{lines: []string{"0"}}
	v, changed, err = ChooseOption(p, &out, options, "\n\n")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "\n\n", v)
	assert.Contains(t, out.String(), "Warning : Same ID as current option. Not changing.")

	p = &scriptedPrompter{lines: []string{""}}
	v, changed, err = ChooseOption(p, &out, options, "\n")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "\n", v)

	_, _, err = ChooseOption(&scriptedPrompter{}, &out, options, "\t")
	require.Error(t, err)
}

func TestChangeParams_Delimiter(t *testing.T) {
	f := newSession(t, []string{"1"}, []rune{'D'})

	require.NoError(t, f.sess.ChangeParams(context.Background()))
	assert.Equal(t, "\n", f.sess.Delimiter())
	assert.Contains(t, f.prompter.prompts, "Change model(m) or delimiter(d)? : ")
}

func TestChangeParams_UnknownKeyDoesNothing(t *testing.T) {
	f := newSession(t, nil, []rune{'x'})

	require.NoError(t, f.sess.ChangeParams(context.Background()))
	assert.Equal(t, "\n\n", f.sess.Delimiter())
	assert.Equal(t, tinyName, f.sess.Model())
}

func TestChangeParams_ModelSwitchConfirmsPersist(t *testing.T) {
	f := newSession(t, []string{"0"}, []rune{'m', 'y'})
	_, _, err := f.store.OpenOrCreate("mock:other")
	require.NoError(t, err)

	_, err = f.sess.Search(context.Background(), "ls", lsQuery)
	require.NoError(t, err)

	require.NoError(t, f.sess.ChangeParams(context.Background()))
	assert.Equal(t, "mock:other", f.sess.Model())
	assert.False(t, f.sess.Dirty())
	assert.Empty(t, f.sess.Cache().Commands)

	old, err := f.store.Load(tinyName)
	require.NoError(t, err)
	assert.Equal(t, []string{"ls"}, old.Names())
}

func TestChangeParams_BadModelKeepsState(t *testing.T) {
	f := newSession(t, []string{"0"}, []rune{'m'})
	_, _, err := f.store.OpenOrCreate("bad:model")
	require.NoError(t, err)

	require.NoError(t, f.sess.ChangeParams(context.Background()))
	assert.Equal(t, tinyName, f.sess.Model())
	assert.Contains(t, f.out.String(), "cannot use model bad:model")
}

func TestAddModel(t *testing.T) {
	f := newSession(t, nil, nil)

	added, err := f.sess.AddModel(context.Background(), tinyName)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Contains(t, f.out.String(), "Model already exists!")

	added, err = f.sess.AddModel(context.Background(), " mock:new ")
	require.NoError(t, err)
	assert.True(t, added)
	assert.FileExists(t, f.store.Path("mock:new"))
	assert.Equal(t, tinyName, f.sess.Model())

	added, err = f.sess.AddModel(context.Background(), "bad:model")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Contains(t, f.out.String(), "cannot use model bad:model")
	assert.NoFileExists(t, f.store.Path("bad:model"))

	_, err = f.sess.AddModel(context.Background(), "")
	require.Error(t, err)
}

func TestChdir(t *testing.T) {
	start := t.TempDir()
	other := t.TempDir()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(start)

	f := newSession(t, nil, nil)
	wd := func() string {
		d, err := os.Getwd()
		require.NoError(t, err)
		d, err = filepath.EvalSymlinks(d)
		require.NoError(t, err)
		return d
	}
	real := func(p string) string {
		r, err := filepath.EvalSymlinks(p)
		require.NoError(t, err)
		return r
	}

	handled, err := f.sess.Chdir("ls -a")
	assert.False(t, handled)
	require.NoError(t, err)

	handled, err = f.sess.Chdir("cd -")
	assert.True(t, handled)
	require.Error(t, err)

	handled, err = f.sess.Chdir("cd   " + other)
	assert.True(t, handled)
	require.NoError(t, err)
	assert.Equal(t, real(other), wd())

	handled, err = f.sess.Chdir("cd -")
	assert.True(t, handled)
	require.NoError(t, err)
	assert.Equal(t, real(start), wd())

	_, err = f.sess.Chdir("cd")
	require.NoError(t, err)
	assert.Equal(t, real(home), wd())

	_, err = f.sess.Chdir("cd " + filepath.Join(other, "missing"))
	require.Error(t, err)
	assert.Equal(t, real(home), wd(), "failed cd keeps the directory")
	assert.Equal(t, real(start), real(f.sess.PrevDir()))
}

func TestRun_SearchHelpAndSave(t *testing.T) {
	f := newSession(t, []string{
		"",
		"ls " + lsQuery,
		":h",
		"ls",
		":nope",
		"nosuchcmd how do I",
		":m",
		"exit",
	}, []rune{'y'})

	require.NoError(t, f.sess.Run(context.Background()))

	out := f.out.String()
	assert.Contains(t, out, "Suggested: ls -a")
	assert.Contains(t, out, ":p, :params")
	assert.Contains(t, out, "Usage: <command> <query...>")
	assert.Contains(t, out, "Unknown command :nope")
	assert.Contains(t, out, "No man page found for nosuchcmd")
	assert.Contains(t, out, "*[0] : "+tinyName)
	assert.Contains(t, out, "Saved!")

	onDisk, err := f.store.Load(tinyName)
	require.NoError(t, err)
	assert.Equal(t, []string{"ls"}, onDisk.Names())
}

func TestRun_ShellEscapes(t *testing.T) {
	f := newSession(t, []string{"!!", "!echo hello from sh", "!exit 3", ":q"}, nil)

	require.NoError(t, f.sess.Run(context.Background()))

	out := f.out.String()
	assert.Contains(t, out, "No suggested command yet")
	assert.Contains(t, out, "hello from sh")
	assert.Contains(t, out, "exit status 3")
}

func TestRun_EOFDeclinesSave(t *testing.T) {
	f := newSession(t, []string{"ls " + lsQuery}, nil)

	require.NoError(t, f.sess.Run(context.Background()))
	assert.Contains(t, f.out.String(), "Not saved!")

	onDisk, err := f.store.Load(tinyName)
	require.NoError(t, err)
	assert.Empty(t, onDisk.Commands)
}

func TestRun_SaveCommand(t *testing.T) {
	f := newSession(t, []string{"ls " + lsQuery, ":save", ":q"}, nil)

	require.NoError(t, f.sess.Run(context.Background()))
	assert.Contains(t, f.out.String(), "Saved 1 command(s) for mock:tiny")
	assert.NotContains(t, f.out.String(), "Not saved!")
}

func TestRun_CanceledContext(t *testing.T) {
	f := newSession(t, []string{"ls " + lsQuery}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, f.sess.Run(ctx), context.Canceled)
}

func TestTerminal_LineFallback(t *testing.T) {
	var out bytes.Buffer
	tm := NewTerminal(strings.NewReader("ls list files\r\nyes\n\nlast"), &out)

	line, err := tm.ReadLine("mansh> ")
	require.NoError(t, err)
	assert.Equal(t, "ls list files", line)

	k, err := tm.ReadKey("save? ")
	require.NoError(t, err)
	assert.Equal(t, 'y', k)

	k, err = tm.ReadKey("again? ")
	require.NoError(t, err)
	assert.Equal(t, '\n', k)

	line, err = tm.ReadLine("> ")
	require.NoError(t, err)
	assert.Equal(t, "last", line)

	_, err = tm.ReadLine("> ")
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "mansh> save? again? > > ", out.String())
}

func TestRun_AddModel(t *testing.T) {
	f := newSession(t, []string{":a", ":a mock:new", ":add\tmock:other", ":a " + tinyName, ":a bad:model", ":q"}, nil)

	require.NoError(t, f.sess.Run(context.Background()))

	out := f.out.String()
	assert.Contains(t, out, "Usage: :a <model>")
	assert.Contains(t, out, "Added model mock:new")
	assert.Contains(t, out, "Added model mock:other")
	assert.Contains(t, out, "Model already exists!")
	assert.Contains(t, out, "cannot use model bad:model")
	assert.NotContains(t, out, "Unknown command")
	assert.Equal(t, tinyName, f.sess.Model(), "adding a model does not switch to it")

	for _, m := range []string{"mock:new", "mock:other"} {
		ok, err := f.store.Exists(m)
		require.NoError(t, err)
		assert.True(t, ok, m)
	}
	models, err := f.store.Models()
	require.NoError(t, err)
	assert.Equal(t, []string{"mock:new", "mock:other", tinyName}, models)
}

func TestRun_ListCommandsForDelimiter(t *testing.T) {
	f := newSession(t, []string{":c", "ls " + lsQuery, ":commands", ":p", "1", ":c", ":q"}, []rune{'d', 'n'})

	require.NoError(t, f.sess.Run(context.Background()))

	out := f.out.String()
	assert.Contains(t, out, `No commands cached for delimiter "\n\n"`)
	assert.Contains(t, out, "Cached commands (delimiter \"\\n\\n\") :\n  ls\n")
	assert.Contains(t, out, `No commands cached for delimiter "\n"`)
	assert.Equal(t, "\n", f.sess.Delimiter())
}

func TestRawKey(t *testing.T) {
	k, err := rawKey('\r')
	require.NoError(t, err)
	assert.Equal(t, '\n', k)

	k, err = rawKey(keyInterrupt)
	require.NoError(t, err)
	assert.Equal(t, keyInterrupt, k)

	_, err = rawKey(keyEOF)
	require.ErrorIs(t, err, io.EOF)
}

func TestConfirmPersist_InterruptDeclines(t *testing.T) {
	f := newSession(t, nil, []rune{keyInterrupt})
	_, err := f.sess.Search(context.Background(), "ls", lsQuery)
	require.NoError(t, err)

	saved, err := f.sess.ConfirmPersist()
	require.NoError(t, err)
	assert.False(t, saved)
	assert.True(t, f.sess.Dirty())
	assert.Contains(t, f.out.String(), "Not saved!")
}

func TestTerminal_ControlKeysInLineMode(t *testing.T) {
	var out bytes.Buffer
	tm := NewTerminal(strings.NewReader("\x03\n\x04\n"), &out)

	k, err := tm.ReadKey("save? ")
	require.NoError(t, err)
	assert.Equal(t, keyInterrupt, k)

	_, err = tm.ReadKey("save? ")
	require.ErrorIs(t, err, io.EOF)
}

func TestRun_StopWordOnlyQueryWarns(t *testing.T) {
	f := newSession(t, []string{"ls the of", ":q"}, []rune{'n'})
	f.sess.strip = true

	require.NoError(t, f.sess.Run(context.Background()))
	assert.Contains(t, f.out.String(), "Nothing left to search for once stop words are removed")
}
