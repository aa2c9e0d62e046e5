package machine

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/cardpunch/internal/model"
)

// validProfile returns a small profile that passes validation.
func validProfile(id string) model.MachineProfile {
	return model.MachineProfile{
		ID:         id,
		Columns:    10,
		Rows:       12,
		HoleWidth:  0.055,
		HoleHeight: 0.125,
		HolePitchX: 0.087,
		HolePitchY: 0.25,
		CardWidth:  1.2,
		CardHeight: 3.25,
		HoleShape:  model.HoleRect,
		Encoding:   model.EncodingHollerith,
	}
}

// TestDefault_BuiltinProfiles verifies the embedded table loads and
// contains the documented machines.
func TestDefault_BuiltinProfiles(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []string{"ibm-80", "ibm-80-binary", "ibm-80-stream", "ref-profile", "stub-40"}, reg.IDs())

	ibm, err := reg.Resolve("ibm-80")
	require.NoError(t, err)
	assert.Equal(t, 80, ibm.Columns)
	assert.Equal(t, 12, ibm.Rows)
	assert.Equal(t, 960, ibm.Capacity())
	assert.Equal(t, model.EncodingHollerith, ibm.Encoding)
	assert.Equal(t, model.HoleRect, ibm.HoleShape)
	assert.InDelta(t, 7.375, ibm.CardWidth, 1e-9)

	ref, err := reg.Resolve("ref-profile")
	require.NoError(t, err)
	assert.Equal(t, 1, ref.Columns)
	assert.Equal(t, 12, ref.Rows)
	assert.Equal(t, model.EncodingBitstream, ref.Encoding)
}

// TestResolve_UnknownMachine verifies a missing id fails with the
// unknown_machine kind and names the offending field.
func TestResolve_UnknownMachine(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	for _, id := range []string{"", "ibm-81", "IBM-80", "ref-profile "} {
		t.Run(id, func(t *testing.T) {
			p, err := reg.Resolve(id)
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrUnknownMachine))
			assert.Equal(t, model.MachineProfile{}, p)

			var ee *model.EngineError
			require.True(t, errors.As(err, &ee))
			assert.Equal(t, "machine_id", ee.Field)
		})
	}
}

// TestNewRegistry_Empty verifies an empty table is an invalid request.
func TestNewRegistry_Empty(t *testing.T) {
	_, err := NewRegistry(nil)
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindInvalidRequest))
}

// TestNewRegistry_DuplicateID verifies ids must be unique within a table.
func TestNewRegistry_DuplicateID(t *testing.T) {
	_, err := NewRegistry([]model.MachineProfile{validProfile("a"), validProfile("a")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate id")
}

// TestNewRegistry_AppliesDefaults verifies omitted shape and encoding are
// filled in.
func TestNewRegistry_AppliesDefaults(t *testing.T) {
	p := validProfile("plain")
	p.HoleShape = ""
	p.Encoding = ""

	reg, err := NewRegistry([]model.MachineProfile{p})
	require.NoError(t, err)

	got, err := reg.Resolve("plain")
	require.NoError(t, err)
	assert.Equal(t, model.HoleRect, got.HoleShape)
	assert.Equal(t, model.EncodingBitstream, got.Encoding)
}

// TestNewRegistry_FoldsEnumCase verifies hand-written tables may spell
// shapes and encodings in any case.
func TestNewRegistry_FoldsEnumCase(t *testing.T) {
	p := validProfile("shouty")
	p.HoleShape = "ROUND"
	p.Encoding = "BitStream"

	reg, err := NewRegistry([]model.MachineProfile{p})
	require.NoError(t, err)

	got, err := reg.Resolve("shouty")
	require.NoError(t, err)
	assert.Equal(t, model.HoleRound, got.HoleShape)
	assert.Equal(t, model.EncodingBitstream, got.Encoding)

	p.Encoding = "ebcdic"
	_, err = NewRegistry([]model.MachineProfile{p})
	assert.ErrorContains(t, err, "ebcdic")
}

// TestRegistry_ReturnsCopies verifies callers cannot mutate registry state
// through returned values.
func TestRegistry_ReturnsCopies(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	p, err := reg.Resolve("ibm-80")
	require.NoError(t, err)
	p.Columns = 1

	ids := reg.IDs()
	ids[0] = "mutated"

	again, err := reg.Resolve("ibm-80")
	require.NoError(t, err)
	assert.Equal(t, 80, again.Columns)
	assert.Equal(t, "ibm-80", reg.IDs()[0])
}

// TestRegistry_ConcurrentResolve exercises lock-free reads from many
// goroutines; run with -race.
func TestRegistry_ConcurrentResolve(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, id := range reg.IDs() {
				_, err := reg.Resolve(id)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
}

// TestOpen_MergesFileOverBuiltins verifies YAML and JSONC tables load to
// identical registries, with file entries replacing built-ins.
func TestOpen_MergesFileOverBuiltins(t *testing.T) {
	for _, name := range []string{"extra.yaml", "extra.jsonc"} {
		t.Run(name, func(t *testing.T) {
			reg, err := Open(filepath.Join("testdata", name))
			require.NoError(t, err)

			assert.Equal(t, 6, reg.Len())

			round, err := reg.Resolve("round-24")
			require.NoError(t, err)
			assert.Equal(t, model.HoleRound, round.HoleShape)
			assert.Equal(t, model.EncodingByteColumn, round.Encoding)
			assert.Equal(t, 8, round.Rows)

			ref, err := reg.Resolve("ref-profile")
			require.NoError(t, err)
			assert.Equal(t, 2, ref.Columns, "file entry should replace the built-in")
			assert.Equal(t, model.HoleRect, ref.HoleShape, "defaults apply to file entries")
		})
	}

	fromYAML, err := Open(filepath.Join("testdata", "extra.yaml"))
	require.NoError(t, err)
	fromJSONC, err := Open(filepath.Join("testdata", "extra.jsonc"))
	require.NoError(t, err)
	assert.Equal(t, fromYAML.Profiles(), fromJSONC.Profiles())
}

// TestOpen_EmptyPath returns the built-in registry unchanged.
func TestOpen_EmptyPath(t *testing.T) {
	reg, err := Open("")
	require.NoError(t, err)
	assert.Equal(t, 5, reg.Len())
}

// TestOpen_InvalidFiles verifies bad tables fail with invalid_request.
func TestOpen_InvalidFiles(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		wantErr string
	}{
		{"grid does not fit", "invalid.yaml", "hole grid is"},
		{"unsupported extension", "extra.toml", "unsupported machine table extension"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(filepath.Join("testdata", tt.file))
			require.Error(t, err)
			assert.True(t, model.IsKind(err, model.KindInvalidRequest))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// TestOpen_MissingFile verifies a missing file surfaces the OS error.
func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join("testdata", "does-not-exist.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

// TestParse_EmptyMachinesList verifies a table with no entries parses but
// cannot build a registry.
func TestParse_EmptyMachinesList(t *testing.T) {
	profiles, err := LoadFile(filepath.Join("testdata", "empty.json"))
	require.NoError(t, err)
	assert.Empty(t, profiles)

	_, err = NewRegistry(profiles)
	assert.True(t, model.IsKind(err, model.KindInvalidRequest))
}

// TestParse_WrongVersion verifies unknown schema versions are rejected.
func TestParse_WrongVersion(t *testing.T) {
	_, err := Parse([]byte("version: 2\nmachines: []\n"), FormatYAML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported table version 2")
}

// TestExport_RoundTrip verifies the exported YAML loads back into an
// equal registry.
func TestExport_RoundTrip(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, reg.Export(&buf))
	assert.Contains(t, buf.String(), "hole_pitch_x: 0.087")

	profiles, err := Parse(buf.Bytes(), FormatYAML)
	require.NoError(t, err)
	again, err := NewRegistry(profiles)
	require.NoError(t, err)
	assert.Equal(t, reg.Profiles(), again.Profiles())
}
