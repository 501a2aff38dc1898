package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/shashiranjanraj/storeadmin/app/models"
	"github.com/shashiranjanraj/storeadmin/pkg/logger"
	"github.com/shashiranjanraj/storeadmin/pkg/metrics"
	"github.com/shashiranjanraj/storeadmin/pkg/workerpool"
)

// SpecificationAPI is the part of the remote client the reconciler writes
// through.
type SpecificationAPI interface {
	SpecificationValues(ctx context.Context, productID int64) ([]models.SpecificationValue, error)
	CreateSpecificationValue(ctx context.Context, in models.NewSpecificationValue) (models.SpecificationValue, error)
	UpdateSpecificationValue(ctx context.Context, valueID int64, in models.SpecificationValueUpdate) (models.SpecificationValue, error)
	DeleteSpecificationValue(ctx context.Context, productID, specificationID int64) error
}

// WriteKind is the kind of a planned write.
type WriteKind string

const (
	WriteCreate WriteKind = "create"
	WriteUpdate WriteKind = "update"
)

// Write is one planned specification value write.
type Write struct {
	Kind         WriteKind `json:"kind"`
	DefinitionID int64     `json:"definition_id"`
	Name         string    `json:"name"`
	ValueID      int64     `json:"value_id,omitempty"` // target record of an update
	Value        string    `json:"value"`
}

// Label names the write in messages.
func (w Write) Label() string {
	if w.Name != "" {
		return w.Name
	}
	return fmt.Sprintf("specification %d", w.DefinitionID)
}

// Plan is the set of writes one submission needs.
type Plan struct {
	ProductID int64   `json:"product_id"`
	Writes    []Write `json:"writes"`
	// Skipped holds working-map keys that are not definitions of the
	// product's category. They are never written.
	Skipped []int64 `json:"skipped,omitempty"`
}

// BuildPlan decides create vs update for every non-empty working value.
// Writes are ordered by definition id.
func BuildPlan(productID int64, schema []models.SpecificationDefinition, existing []models.SpecificationValue, values models.WorkingValues, m Matcher) Plan {
	if m == nil {
		m = NameMatcher{}
	}
	defs := make(map[int64]models.SpecificationDefinition, len(schema))
	for _, d := range schema {
		defs[d.ID] = d
	}
	lookup := m.Build(existing)

	ids := make([]int64, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	plan := Plan{ProductID: productID, Writes: []Write{}}
	for _, id := range ids {
		value := values[id]
		if value == "" {
			continue
		}
		def, ok := defs[id]
		if !ok {
			plan.Skipped = append(plan.Skipped, id)
			continue
		}

		w := Write{Kind: WriteCreate, DefinitionID: id, Name: def.Name, Value: value}
		if rec, found := lookup(def); found {
			w.Kind = WriteUpdate
			w.ValueID = rec.ID
		}
		plan.Writes = append(plan.Writes, w)
	}
	return plan
}

// Outcome is the overall result of a reconciliation.
type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomePartialFailure Outcome = "partial_failure"
)

// WriteResult is the settled result of one write.
type WriteResult struct {
	Write Write `json:"write"`
	Err   error `json:"-"`
}

// MarshalJSON reports Err as a message.
func (r WriteResult) MarshalJSON() ([]byte, error) {
	out := struct {
		Write Write  `json:"write"`
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}{Write: r.Write, OK: r.Err == nil}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// ReconcileResult reports every write of one submission.
type ReconcileResult struct {
	ProductID int64         `json:"product_id"`
	Outcome   Outcome       `json:"outcome"`
	Results   []WriteResult `json:"results"`
	Skipped   []int64       `json:"skipped,omitempty"`
}

// Failed returns the writes that did not succeed.
func (r *ReconcileResult) Failed() []WriteResult {
	var out []WriteResult
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Err returns a *PartialFailureError when any write failed, else nil.
func (r *ReconcileResult) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	return &PartialFailureError{ProductID: r.ProductID, Total: len(r.Results), Failed: failed}
}

// ReconcilerOption customises a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithMatcher replaces the default NameMatcher.
func WithMatcher(m Matcher) ReconcilerOption {
	return func(r *Reconciler) { r.matcher = m }
}

// Reconciler turns a working value map into the minimal set of creates and
// updates against a product's existing specification values.
type Reconciler struct {
	api      SpecificationAPI
	resolver *SchemaResolver
	pool     *workerpool.Pool
	matcher  Matcher
}

// NewReconciler creates a reconciler writing through api on pool.
func NewReconciler(api SpecificationAPI, resolver *SchemaResolver, pool *workerpool.Pool, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{api: api, resolver: resolver, pool: pool, matcher: NameMatcher{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Matcher returns the matcher in use.
func (r *Reconciler) Matcher() Matcher { return r.matcher }

// Reconcile fetches the category schema and the product's existing values
// concurrently, plans the writes, then runs them all concurrently. A fetch
// failure is returned before any write is issued. Write failures do not
// roll anything back; they are reported through the result. Calling
// Reconcile again re-fetches existing values and re-decides every write.
func (r *Reconciler) Reconcile(ctx context.Context, productID, categoryID int64, values models.WorkingValues) (*ReconcileResult, error) {
	var (
		schema   []models.SpecificationDefinition
		existing []models.SpecificationValue
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		schema, err = r.resolver.Resolve(gctx, categoryID)
		if err != nil {
			return fmt.Errorf("resolve schema of category %d: %w", categoryID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		existing, err = r.api.SpecificationValues(gctx, productID)
		if err != nil {
			return fmt.Errorf("load specification values of product %d: %w", productID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		metrics.RecordReconcile("error")
		return nil, err
	}

	plan := BuildPlan(productID, schema, existing, values, r.matcher)
	if len(plan.Skipped) > 0 {
		logger.WithCtx(ctx).Warn("dropping values outside the category schema",
			"product_id", productID, "category_id", categoryID, "definition_ids", plan.Skipped)
	}

	return r.Execute(ctx, plan), nil
}

// Execute runs every write of plan concurrently and waits for all of them.
func (r *Reconciler) Execute(ctx context.Context, plan Plan) *ReconcileResult {
	tasks := make([]workerpool.Task, len(plan.Writes))
	for i, w := range plan.Writes {
		w := w
		tasks[i] = func(ctx context.Context) error { return r.write(ctx, plan.ProductID, w) }
	}

	errs := r.pool.RunAll(ctx, tasks)

	res := &ReconcileResult{
		ProductID: plan.ProductID,
		Outcome:   OutcomeSuccess,
		Results:   make([]WriteResult, len(plan.Writes)),
		Skipped:   plan.Skipped,
	}
	for i, w := range plan.Writes {
		res.Results[i] = WriteResult{Write: w, Err: errs[i]}
		if errs[i] != nil {
			res.Outcome = OutcomePartialFailure
		}
	}

	metrics.RecordReconcile(string(res.Outcome))
	log := logger.WithCtx(ctx)
	if res.Outcome == OutcomeSuccess {
		log.Info("specifications reconciled", "product_id", plan.ProductID, "writes", len(plan.Writes))
	} else {
		log.Warn("specifications partially reconciled",
			"product_id", plan.ProductID, "writes", len(plan.Writes), "failed", len(res.Failed()))
	}
	return res
}

func (r *Reconciler) write(ctx context.Context, productID int64, w Write) error {
	var err error
	switch w.Kind {
	case WriteUpdate:
		_, err = r.api.UpdateSpecificationValue(ctx, w.ValueID, models.SpecificationValueUpdate{
			ProductID: productID,
			Value:     w.Value,
		})
	default:
		_, err = r.api.CreateSpecificationValue(ctx, models.NewSpecificationValue{
			ProductID:       productID,
			SpecificationID: w.DefinitionID,
			Value:           w.Value,
		})
	}
	metrics.RecordSpecWrite(string(w.Kind), err == nil)
	if err != nil {
		return err
	}
	logger.Audit(ctx, "specification.written",
		"product_id", productID, "definition_id", w.DefinitionID, "kind", string(w.Kind), "value", w.Value)
	return nil
}

// DeleteValue removes a product's value for one definition. A value that
// is already gone counts as deleted.
func (r *Reconciler) DeleteValue(ctx context.Context, productID, definitionID int64) error {
	if err := r.api.DeleteSpecificationValue(ctx, productID, definitionID); err != nil {
		return fmt.Errorf("delete specification %d of product %d: %w", definitionID, productID, err)
	}
	logger.Audit(ctx, "specification.deleted", "product_id", productID, "definition_id", definitionID)
	return nil
}
