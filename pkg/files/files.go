// Package files resolves and serves the per-protein structure and PAE
// artifacts. The stores never read these files; the resolver only turns the
// path columns gated by has_structure/has_pae into filesystem locations
// under the data root.
package files

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rschaeff/archaea-vis/pkg/archaea"
)

// Resolver maps protein artifact columns to filesystem paths under Root.
type Resolver struct {
	// Root is the data directory the bulk pipeline writes artifacts into.
	// Stored paths are relative to it.
	Root string
}

// NewResolver creates a Resolver for the given data root.
func NewResolver(root string) *Resolver {
	return &Resolver{Root: root}
}

// ErrNoArtifact is returned when the protein has no artifact of the
// requested kind.
var ErrNoArtifact = errors.New("no artifact")

// StructurePath resolves the structure file of a protein. Returns
// ErrNoArtifact when the protein carries no structure link.
func (r *Resolver) StructurePath(p *archaea.Protein) (string, error) {
	if !p.HasStructure || p.StructurePath == nil {
		return "", fmt.Errorf("protein %q structure: %w", p.ProteinID, ErrNoArtifact)
	}
	return r.resolve(*p.StructurePath)
}

// PaePath resolves the PAE JSON of a protein. Returns ErrNoArtifact when
// the protein carries no PAE link.
func (r *Resolver) PaePath(p *archaea.Protein) (string, error) {
	if !p.HasPae || p.PaePath == nil {
		return "", fmt.Errorf("protein %q pae: %w", p.ProteinID, ErrNoArtifact)
	}
	return r.resolve(*p.PaePath)
}

// resolve joins a stored relative path against the root and rejects paths
// escaping it.
func (r *Resolver) resolve(rel string) (string, error) {
	path := filepath.Join(r.Root, filepath.FromSlash(rel))
	clean, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve artifact path: %w", err)
	}
	root, err := filepath.Abs(r.Root)
	if err != nil {
		return "", fmt.Errorf("resolve data root: %w", err)
	}
	if clean != root && !isUnder(clean, root) {
		return "", fmt.Errorf("artifact path %q escapes data root", rel)
	}
	return clean, nil
}

func isUnder(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ServeStructureHandler handles GET /proteins/{proteinID}/structure.
func ServeStructureHandler(store *archaea.Store, resolver *Resolver) http.HandlerFunc {
	return serveArtifact(store, resolver.StructurePath)
}

// ServePaeHandler handles GET /proteins/{proteinID}/pae.
func ServePaeHandler(store *archaea.Store, resolver *Resolver) http.HandlerFunc {
	return serveArtifact(store, resolver.PaePath)
}

func serveArtifact(store *archaea.Store, resolve func(*archaea.Protein) (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		proteinID := chi.URLParam(r, "proteinID")

		detail, err := store.GetProtein(proteinID)
		if err != nil {
			if errors.Is(err, archaea.ErrNotFound) {
				writeError(w, http.StatusNotFound, fmt.Sprintf("protein %q not found", proteinID))
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get protein: %v", err))
			return
		}

		path, err := resolve(&detail.Protein)
		if err != nil {
			if errors.Is(err, ErrNoArtifact) {
				writeError(w, http.StatusNotFound, fmt.Sprintf("protein %q has no such artifact", proteinID))
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to resolve artifact: %v", err))
			return
		}
		if _, err := os.Stat(path); err != nil {
			writeError(w, http.StatusNotFound, fmt.Sprintf("artifact for protein %q is missing on disk", proteinID))
			return
		}

		http.ServeFile(w, r, path)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
