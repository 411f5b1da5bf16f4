// Package loader turns external data sources into entity documents: a JSON
// file on disk, a single HTTP fetch, or a read-only SQLite table. All three
// produce the same model.Entity tree; callers never care where a document
// came from.
package loader

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"treescope/pkg/model"

	_ "modernc.org/sqlite"
)

// DefaultDocument is the document path looked for when none is given,
// relative to the project directory.
const DefaultDocument = ".treescope/tree.json"

// LoadFile reads and decodes a JSON entity document from disk.
func LoadFile(path string) (*model.Entity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	root, err := model.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return root, nil
}

// Fetch issues one GET for a JSON entity document. There is no retry: a
// transport error, a non-2xx status or a decode failure is surfaced as-is
// for the caller to show.
func Fetch(ctx context.Context, url string) (*model.Entity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch document: %s returned %s", url, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	root, err := model.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return root, nil
}

// Discover walks up from dir looking for the default document. It returns
// the first .treescope/tree.json found, or an error at the filesystem root.
func Discover(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, DefaultDocument)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found in %s or any parent", DefaultDocument, dir)
		}
		dir = parent
	}
}

type entityRow struct {
	id          int64
	parent      sql.NullInt64
	name        string
	description sql.NullString
	url         sql.NullString
	position    int64
}

// LoadSQLite reassembles an entity tree from a read-only entities table:
//
//	entities(id, parent_id, name, description, url, position)
//
// Rows are ordered among siblings by position. Rows whose parent is missing
// and rows trapped in a parent cycle are reattached under the root rather
// than dropped, so a damaged database still yields a drawable tree.
func LoadSQLite(path string) (*model.Entity, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT id, parent_id, name, COALESCE(description,''), COALESCE(url,''), COALESCE(position,0) FROM entities`)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]*entityRow)
	var order []int64
	for rows.Next() {
		var r entityRow
		if err := rows.Scan(&r.id, &r.parent, &r.name, &r.description, &r.url, &r.position); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		byID[r.id] = &r
		order = append(order, r.id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read entities: %w", err)
	}
	if len(byID) == 0 {
		return nil, fmt.Errorf("%s: entities table is empty", path)
	}

	return assemble(byID, order), nil
}

// assemble builds the tree, adopting dangling and cyclic rows as root
// children.
func assemble(byID map[int64]*entityRow, order []int64) *model.Entity {
	entities := make(map[int64]*model.Entity, len(byID))
	for id, r := range byID {
		entities[id] = &model.Entity{
			Name:        r.name,
			Description: r.description.String,
			URL:         r.url.String,
		}
	}

	childIDs := make(map[int64][]int64)
	var rootIDs []int64
	for _, id := range order {
		r := byID[id]
		if !r.parent.Valid {
			rootIDs = append(rootIDs, id)
			continue
		}
		if _, ok := byID[r.parent.Int64]; !ok {
			// Dangling parent reference.
			rootIDs = append(rootIDs, id)
			continue
		}
		childIDs[r.parent.Int64] = append(childIDs[r.parent.Int64], id)
	}

	bySiblingOrder := func(ids []int64) {
		sort.Slice(ids, func(a, b int) bool {
			ra, rb := byID[ids[a]], byID[ids[b]]
			if ra.position != rb.position {
				return ra.position < rb.position
			}
			return ra.id < rb.id
		})
	}

	// Walk down from the roots; anything never reached sits in a parent
	// cycle and gets adopted as an extra root.
	visited := make(map[int64]bool, len(byID))
	var attach func(id int64)
	attach = func(id int64) {
		if visited[id] {
			return
		}
		visited[id] = true
		kids := childIDs[id]
		bySiblingOrder(kids)
		for _, c := range kids {
			if visited[c] {
				continue
			}
			entities[id].Children = append(entities[id].Children, entities[c])
			attach(c)
		}
	}

	bySiblingOrder(rootIDs)
	for _, id := range rootIDs {
		attach(id)
	}
	for _, id := range order {
		if !visited[id] {
			rootIDs = append(rootIDs, id)
			attach(id)
		}
	}

	if len(rootIDs) == 1 {
		return entities[rootIDs[0]]
	}
	root := &model.Entity{Name: "entities"}
	for _, id := range rootIDs {
		root.Children = append(root.Children, entities[id])
	}
	return root
}
