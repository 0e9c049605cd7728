package files

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rschaeff/archaea-vis/pkg/archaea"
)

func strPtr(v string) *string { return &v }

func TestStructurePathResolution(t *testing.T) {
	root := t.TempDir()
	resolver := NewResolver(root)

	p := &archaea.Protein{
		ProteinID:     "P1",
		HasStructure:  true,
		StructurePath: strPtr("structures/P1.pdb"),
	}
	path, err := resolver.StructurePath(p)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "structures", "P1.pdb"), path)
}

func TestResolverRejectsEscapingPaths(t *testing.T) {
	resolver := NewResolver(t.TempDir())

	p := &archaea.Protein{
		ProteinID:     "P1",
		HasStructure:  true,
		StructurePath: strPtr("../../etc/passwd"),
	}
	_, err := resolver.StructurePath(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes data root")
}

func TestResolverNoArtifact(t *testing.T) {
	resolver := NewResolver(t.TempDir())

	// Path column set but the gate flag is off.
	p := &archaea.Protein{ProteinID: "P1", StructurePath: strPtr("structures/P1.pdb")}
	_, err := resolver.StructurePath(p)
	assert.ErrorIs(t, err, ErrNoArtifact)

	// Gate on but no stored path.
	p = &archaea.Protein{ProteinID: "P1", HasPae: true}
	_, err = resolver.PaePath(p)
	assert.ErrorIs(t, err, ErrNoArtifact)
}

func setupArtifactServer(t *testing.T, root string) (*gorm.DB, *chi.Mux) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	store := archaea.NewStore(db)
	require.NoError(t, store.AutoMigrate())

	resolver := NewResolver(root)
	r := chi.NewRouter()
	r.Get("/proteins/{proteinID}/structure", ServeStructureHandler(store, resolver))
	r.Get("/proteins/{proteinID}/pae", ServePaeHandler(store, resolver))
	return db, r
}

func TestServeStructure(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "structures"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "structures", "P1.pdb"), []byte("ATOM"), 0o644))

	db, r := setupArtifactServer(t, root)
	require.NoError(t, db.Create(&archaea.Protein{
		ProteinID:     "P1",
		GenomeID:      "g1",
		Length:        100,
		Source:        "predicted",
		HasStructure:  true,
		StructurePath: strPtr("structures/P1.pdb"),
	}).Error)

	req := httptest.NewRequest(http.MethodGet, "/proteins/P1/structure", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ATOM", w.Body.String())
}

func TestServeStructureNotFoundCases(t *testing.T) {
	root := t.TempDir()
	db, r := setupArtifactServer(t, root)

	// Unknown protein.
	req := httptest.NewRequest(http.MethodGet, "/proteins/missing/structure", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Protein exists but has no artifact link.
	require.NoError(t, db.Create(&archaea.Protein{
		ProteinID: "P1", GenomeID: "g1", Length: 100, Source: "predicted",
	}).Error)
	req = httptest.NewRequest(http.MethodGet, "/proteins/P1/structure", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Link present but file missing on disk.
	require.NoError(t, db.Create(&archaea.Protein{
		ProteinID: "P2", GenomeID: "g1", Length: 100, Source: "predicted",
		HasStructure: true, StructurePath: strPtr("structures/P2.pdb"),
	}).Error)
	req = httptest.NewRequest(http.MethodGet, "/proteins/P2/structure", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
