package element

import "sync"

// Index is the process-wide uid → NodeRecord table. It holds exactly one
// namespace set per epoch per namespace kind: tree records are replaced
// wholesale by ReplaceTree on every snapshot, scan records by ReplaceScan on
// every visual scan. The two namespaces clear independently.
type Index struct {
	mu    sync.RWMutex
	tree  map[string]*NodeRecord
	scan  map[string]*NodeRecord
	epoch int64
}

// NewIndex creates an empty Index at epoch 0.
func NewIndex() *Index {
	return &Index{
		tree: make(map[string]*NodeRecord),
		scan: make(map[string]*NodeRecord),
	}
}

// Get looks up a record by uid in whichever namespace the uid belongs to.
func (ix *Index) Get(uid string) (*NodeRecord, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if r, ok := ix.tree[uid]; ok {
		return r, true
	}
	r, ok := ix.scan[uid]
	return r, ok
}

// Put inserts or replaces a single record. The namespace is derived from the
// uid prefix; records with unparseable uids are dropped.
func (ix *Index) Put(uid string, rec *NodeRecord) {
	prefix, _, ok := ParseUID(uid)
	if !ok {
		return
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if prefix == TreePrefix {
		ix.tree[uid] = rec
		return
	}
	ix.scan[uid] = rec
}

// ReplaceTree supersedes the tree namespace with a new epoch's records and
// bumps the epoch counter. Prior-epoch uids stop resolving unless the new
// snapshot happens to re-issue them.
func (ix *Index) ReplaceTree(records map[string]*NodeRecord) int64 {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.tree = make(map[string]*NodeRecord, len(records))
	for uid, r := range records {
		ix.tree[uid] = r
	}
	ix.epoch++
	return ix.epoch
}

// ReplaceScan supersedes the scan namespace.
func (ix *Index) ReplaceScan(records []NodeRecord) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.scan = make(map[string]*NodeRecord, len(records))
	for i := range records {
		r := records[i]
		ix.scan[r.UID] = &r
	}
}

// Clear empties both namespaces. The epoch counter is preserved.
func (ix *Index) Clear() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.tree = make(map[string]*NodeRecord)
	ix.scan = make(map[string]*NodeRecord)
}

// Epoch returns the current snapshot epoch.
func (ix *Index) Epoch() int64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.epoch
}

// TreeSize returns the number of tree-namespace records.
func (ix *Index) TreeSize() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.tree)
}
