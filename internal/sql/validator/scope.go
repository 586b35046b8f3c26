package validator

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/example/granite-db/analyzer/internal/catalog"
	"github.com/example/granite-db/analyzer/internal/sql/expr"
	"github.com/example/granite-db/analyzer/internal/sql/parser"
)

// statementAnalyzer carries the state of one Analyze call. Frames form a
// tree: every query block gets its own frame whose parent is the frame of
// the enclosing block.
type statementAnalyzer struct {
	ctx      context.Context
	catalog  catalog.Catalog
	opts     Options
	desc     *DescriptorTable
	frames   []*frame
	blocks   []*Block
	defining []string
}

// frame is the naming scope of one query block. Table aliases and columns
// resolve in the current frame only; WITH views resolve from the innermost
// frame outward.
type frame struct {
	parent  int
	refs    []TupleID
	aliases map[string]TupleID
	views   map[string]*namedView
}

// namedView is a registered WITH-clause view.
type namedView struct {
	name   string
	block  BlockID
	labels []string
	types  []expr.Type
}

func newStatementAnalyzer(ctx context.Context, cat catalog.Catalog, opts Options) *statementAnalyzer {
	return &statementAnalyzer{
		ctx:     ctx,
		catalog: cat,
		opts:    opts,
		desc:    newDescriptorTable(),
	}
}

func (a *statementAnalyzer) newFrame(parent int) int {
	a.frames = append(a.frames, &frame{
		parent:  parent,
		aliases: make(map[string]TupleID),
		views:   make(map[string]*namedView),
	})
	return len(a.frames) - 1
}

func (a *statementAnalyzer) addBlock(block *Block) BlockID {
	block.ID = BlockID(len(a.blocks))
	a.blocks = append(a.blocks, block)
	return block.ID
}

func (a *statementAnalyzer) block(id BlockID) *Block {
	return a.blocks[id]
}

func (a *statementAnalyzer) lookupView(f int, name string) *namedView {
	key := strings.ToLower(name)
	for f >= 0 {
		fr := a.frames[f]
		if view, ok := fr.views[key]; ok {
			return view
		}
		f = fr.parent
	}
	return nil
}

func (a *statementAnalyzer) isDefining(name string) bool {
	key := strings.ToLower(name)
	for _, defining := range a.defining {
		if defining == key {
			return true
		}
	}
	return false
}

// resolveTable finds a catalog table. An empty database selects the default
// database.
func (a *statementAnalyzer) resolveTable(database, name string) (*catalog.Table, string, error) {
	db := database
	if db == "" {
		db = a.opts.DefaultDatabase
	}
	if database != "" && !a.catalog.DatabaseExists(db) {
		return nil, db, errorf(DatabaseNotFound, "Database does not exist: %s", db)
	}
	table, ok := a.catalog.GetTable(db, name)
	if !ok {
		if database == "" && a.isDefining(name) {
			return nil, db, errorf(RecursiveReference, "Unsupported recursive reference to table '%s' in WITH clause.", name)
		}
		return nil, db, errorf(TableNotFound, "Table does not exist: %s.%s", db, name)
	}
	return table, db, nil
}

// registerTableRef resolves one FROM-clause item and adds it to frame f. The
// returned block id is the inline view block, or -1.
func (a *statementAnalyzer) registerTableRef(f int, ref parser.TableRef) (*TupleDescriptor, BlockID, error) {
	var tuple *TupleDescriptor
	child := BlockID(-1)
	switch r := ref.(type) {
	case *parser.TableName:
		var view *namedView
		if r.Database == "" {
			view = a.lookupView(f, r.Name)
		}
		if view != nil {
			tuple = a.desc.addTuple(TupleWithView, view.name, viewColumns(view.labels, view.types))
			tuple.Block = view.block
			tuple.key = strings.ToLower(view.name)
		} else {
			table, db, err := a.resolveTable(r.Database, r.Name)
			if err != nil {
				return nil, child, err
			}
			tuple = a.desc.addTuple(TupleBaseTable, db+"."+r.Name, tableColumns(table))
			tuple.Table = table
			tuple.key = strings.ToLower(db + "." + r.Name)
		}
		if r.Alias != "" {
			tuple.Alias = r.Alias
			tuple.Explicit = true
			tuple.key = strings.ToLower(r.Alias)
		}
	case *parser.InlineView:
		childFrame := a.newFrame(f)
		id, err := a.analyzeQuery(childFrame, r.Query)
		if err != nil {
			return nil, child, err
		}
		block := a.block(id)
		if err := checkUniqueLabels(block.Labels, r.Alias); err != nil {
			return nil, child, err
		}
		tuple = a.desc.addTuple(TupleInlineView, r.Alias, viewColumns(block.Labels, block.Types))
		tuple.Block = id
		tuple.Explicit = true
		tuple.key = strings.ToLower(r.Alias)
		child = id
	default:
		return nil, child, errors.Errorf("validator: unsupported table reference %T", ref)
	}

	fr := a.frames[f]
	if _, exists := fr.aliases[tuple.key]; exists {
		return nil, child, errorf(DuplicateAlias, "Duplicate table alias: '%s'", tuple.key)
	}
	fr.aliases[tuple.key] = tuple.ID
	fr.refs = append(fr.refs, tuple.ID)
	return tuple, child, nil
}

func tableColumns(table *catalog.Table) []ColumnDesc {
	cols := make([]ColumnDesc, len(table.Columns))
	for i, col := range table.Columns {
		cols[i] = ColumnDesc{Name: col.Name, Type: expr.FromColumn(col.Type)}
	}
	return cols
}

func viewColumns(labels []string, types []expr.Type) []ColumnDesc {
	cols := make([]ColumnDesc, len(labels))
	for i := range labels {
		cols[i] = ColumnDesc{Name: labels[i], Type: types[i]}
	}
	return cols
}

func checkUniqueLabels(labels []string, viewName string) error {
	seen := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		key := strings.ToLower(label)
		if _, dup := seen[key]; dup {
			return errorf(DuplicateColumnAlias, "duplicated inline view column alias: '%s' in inline view '%s'", key, viewName)
		}
		seen[key] = struct{}{}
	}
	return nil
}
