package content

import "github.com/google/uuid"

// Folder groups records of a single kind in the editor's tree view.
// Folder rows come out of the store flat; BuildFolderTree links them.
type Folder struct {
	Id        uuid.UUID `json:"id"`
	Kind      Kind      `json:"-"`
	ParentId  uuid.UUID `json:"parent_id,omitempty"`
	Name      string    `json:"name"`
	SortOrder int       `json:"sort_order,omitempty"`

	Children []*Folder `json:"-"`
	Records  []Record  `json:"-"`
}

// FolderTree is the linked folder hierarchy for one content kind.
type FolderTree struct {
	Roots    []*Folder
	Unfiled  []Record
	byId     map[uuid.UUID]*Folder
	repaired []Record
}

// BuildFolderTree links flat folder rows and records into a tree in
// two passes: index by id, then attach each node to its parent. A
// folder whose parent is missing becomes a root; a record whose folder
// is missing has the dangling reference cleared and is reported via
// Repaired so the caller can persist the fix. No recursion, so folder
// depth is unbounded.
func BuildFolderTree(folders []*Folder, records []Record) *FolderTree {
	t := &FolderTree{
		byId: make(map[uuid.UUID]*Folder, len(folders)),
	}

	for _, f := range folders {
		t.byId[f.Id] = f
	}

	for _, f := range folders {
		if f.ParentId != uuid.Nil {
			if parent, ok := t.byId[f.ParentId]; ok {
				parent.Children = append(parent.Children, f)
				continue
			}
			// Dangling parent reference: keep the folder, surface it
			// at the root instead of dropping its subtree.
			f.ParentId = uuid.Nil
		}
		t.Roots = append(t.Roots, f)
	}

	for _, rec := range records {
		fid := rec.ParentFolder()
		if fid == uuid.Nil {
			t.Unfiled = append(t.Unfiled, rec)
			continue
		}
		f, ok := t.byId[fid]
		if !ok {
			rec.SetParentFolder(uuid.Nil)
			t.repaired = append(t.repaired, rec)
			t.Unfiled = append(t.Unfiled, rec)
			continue
		}
		f.Records = append(f.Records, rec)
	}

	return t
}

// Folder returns the linked folder with the given id.
func (t *FolderTree) Folder(id uuid.UUID) (*Folder, bool) {
	f, ok := t.byId[id]
	return f, ok
}

// Repaired returns records whose dangling folder reference was
// cleared during linking. The loader persists these.
func (t *FolderTree) Repaired() []Record {
	return t.repaired
}

// Walk visits every folder top-down using an explicit stack.
func (t *FolderTree) Walk(visit func(*Folder)) {
	stack := make([]*Folder, len(t.Roots))
	copy(stack, t.Roots)
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit(f)
		stack = append(stack, f.Children...)
	}
}
