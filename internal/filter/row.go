package filter

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/spf13/cast"

	"github.com/rebeliceyang/lazyfilter/internal/models"
)

const (
	hintMembership = "values separated by commas"
	hintPattern    = "use % as wildcard"
)

var errNoResolver = errors.New("no resolver configured")

// Row is one filter row: a field, a condition and a value editor. Every
// field or condition selection bumps the row version; asynchronous results
// captured under an older version are dropped.
type Row struct {
	id  string
	set *Set

	mu         sync.Mutex
	version    uint64
	removed    bool
	recordType string
	condition  models.FilterOperator
	hidden     bool
	field      *models.FieldDescriptor
	control    EditableControl
	visible    []models.ConditionEntry
	pending    *Deferred
}

// ID returns the row identifier
func (r *Row) ID() string {
	return r.id
}

// SetField selects a field. op may be empty to use the field's default
// condition and explicit may be FieldTypeUnknown to let the adapter decide.
// An unknown field removes the row and returns an *UnknownFieldError.
func (r *Row) SetField(recordType, fieldname string, explicit models.FieldType, op models.FilterOperator) (*Deferred, error) {
	return r.setField(recordType, fieldname, explicit, op, "")
}

func (r *Row) setField(recordType, fieldname string, explicit models.FieldType, op models.FilterOperator, hint string) (*Deferred, error) {
	deps := r.set.deps
	logger := deps.Logger.With("row", r.id, "record_type", recordType, "field", fieldname)

	r.mu.Lock()
	if r.removed {
		r.mu.Unlock()
		return completedDeferred(nil), nil
	}

	base, ok := deps.Index.Lookup(recordType, fieldname)
	if !ok {
		r.removeLocked()
		r.mu.Unlock()
		logger.Warn("field is not selectable")
		r.set.detach(r)
		r.set.changed()
		return nil, &UnknownFieldError{RecordType: recordType, Field: fieldname}
	}

	df := base
	df.ReadOnly = false
	df.Hidden = false
	df.IsFilter = true

	cond := op
	if cond == "" {
		cond = DefaultCondition(df.Type)
	} else if !deps.Catalog.Allowed(df, cond) {
		logger.Warn("condition not allowed for field, using default", "condition", cond)
		cond = DefaultCondition(df.Type)
		explicit = models.FieldTypeUnknown
		hint = ""
	}

	r.condition = cond
	df = r.set.adapter.Adapt(df, cond, explicit)
	r.version++
	version := r.version
	r.recordType = recordType

	if r.field != nil && r.field.SameShape(df) {
		r.control.SetHint(hint)
		r.pending = nil
		r.mu.Unlock()
		r.set.changed()
		return completedDeferred(nil), nil
	}

	custom, isCustom := deps.Catalog.Custom(cond)
	if !isCustom || !custom.ValidFor(df.Type) {
		r.makeFieldLocked(df, hint)
		r.pending = nil
		r.mu.Unlock()
		r.set.changed()
		return completedDeferred(nil), nil
	}

	d := newDeferred()
	r.pending = d
	r.mu.Unlock()

	args := make(map[string]any)
	if custom.DependsOn != "" {
		value, _ := r.set.siblingValue(r, custom.DependsOn)
		args[custom.DependsOn] = value
	}

	logger.Debug("resolving custom condition field", "condition", cond, "endpoint", custom.Endpoint)
	r.set.goResolve(func(ctx context.Context) {
		r.resolve(ctx, version, custom, args, df, fieldname, hint, d)
	})
	return d, nil
}

func (r *Row) resolve(ctx context.Context, version uint64, custom models.CustomCondition, args map[string]any, df models.FieldDescriptor, fieldname, hint string, d *Deferred) {
	logger := r.set.deps.Logger.With("row", r.id, "endpoint", custom.Endpoint)

	shape, err := r.callResolver(ctx, custom.Endpoint, args)
	if err != nil {
		logger.Warn("failed to resolve custom condition field", "error", err)
		r.failResolution(d, &ResolveError{Endpoint: custom.Endpoint, Err: err})
		return
	}

	r.mu.Lock()
	if r.removed || r.version != version {
		r.mu.Unlock()
		logger.Debug("discarding stale field resolution", "version", version)
		d.finish(nil)
		return
	}

	df.Type = shape.Type
	df.Options = shape.Options
	df.Choices = slices.Clone(shape.Choices)
	df.Name = fieldname
	r.makeFieldLocked(df, hint)
	if r.pending == d {
		r.pending = nil
	}
	r.mu.Unlock()

	r.set.changed()
	d.finish(nil)
}

func (r *Row) callResolver(ctx context.Context, endpoint string, args map[string]any) (shape models.FieldShape, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.set.deps.Logger.Error("resolver panicked", "row", r.id, "endpoint", endpoint, "panic", p)
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	resolver := r.set.deps.Resolver
	if resolver == nil {
		return models.FieldShape{}, errNoResolver
	}
	return resolver.Resolve(ctx, endpoint, args)
}

// failResolution keeps the previous control and leaves the row editable
func (r *Row) failResolution(d *Deferred, err error) {
	r.mu.Lock()
	if r.pending == d {
		r.pending = nil
	}
	r.mu.Unlock()

	r.set.changed()
	d.finish(err)
}

// makeFieldLocked rebuilds the control. The previous value carries over
// when the field type did not change.
func (r *Row) makeFieldLocked(df models.FieldDescriptor, hint string) {
	var oldValue any
	oldType := models.FieldTypeUnknown
	if r.control != nil {
		oldValue = r.control.Value()
		oldType = r.control.Descriptor().Type
	}

	r.field = &df
	r.visible = r.set.deps.Catalog.VisibleConditions(df)
	r.control = r.set.deps.Controls.NewControl(df)

	if !isEmpty(oldValue) && df.Type == oldType {
		if err := r.control.SetValue(oldValue); err != nil {
			r.set.deps.Logger.Debug("could not carry value over", "row", r.id, "error", err)
		}
	}
	if hint != "" {
		r.control.SetHint(hint)
	}
}

// SetCondition changes the condition of the current field. Pattern and
// membership conditions edit the value as text (or as a multi-select for
// select fields) and attach a usage hint.
func (r *Row) SetCondition(op models.FilterOperator) (*Deferred, error) {
	r.mu.Lock()
	if r.removed || r.field == nil {
		r.mu.Unlock()
		return completedDeferred(nil), nil
	}

	explicit := models.FieldTypeUnknown
	hint := ""
	switch {
	case op.IsMembership():
		explicit = models.FieldTypeData
		hint = hintMembership
	case op.IsPattern():
		explicit = models.FieldTypeData
		hint = hintPattern
	}
	if op.IsMembership() && (r.field.Type == models.FieldTypeSelect || r.field.Type == models.FieldTypeMultiSelect) {
		explicit = models.FieldTypeMultiSelect
	}

	recordType, fieldname := r.recordType, r.field.Name
	r.mu.Unlock()

	return r.setField(recordType, fieldname, explicit, op, hint)
}

// SetValues selects field, condition and value in one go. The returned
// Deferred completes once the value is on the control.
func (r *Row) SetValues(recordType, fieldname string, op models.FilterOperator, value any) *Deferred {
	if _, err := r.setField(recordType, fieldname, models.FieldTypeUnknown, "", ""); err != nil {
		return completedDeferred(err)
	}

	r.mu.Lock()
	isCheck := r.field != nil && r.field.OriginalType == models.FieldTypeCheck
	r.mu.Unlock()

	if isCheck {
		if cast.ToInt(value) == 1 {
			value = "Yes"
		} else {
			value = "No"
		}
	}

	if op != "" {
		if _, err := r.SetCondition(op); err != nil {
			return completedDeferred(err)
		}
	}

	if op.IsMembership() {
		switch list := value.(type) {
		case []string:
			value = strings.Join(list, ",")
		case []any:
			value = strings.Join(cast.ToStringSlice(list), ",")
		}
	}

	switch v := value.(type) {
	case []string, []any:
	case nil:
		value = ""
	default:
		value = strings.TrimSpace(cast.ToString(v))
	}

	return r.applyValue(value)
}

// SetValue puts a raw value on the current control
func (r *Row) SetValue(value any) *Deferred {
	return r.applyValue(value)
}

func (r *Row) applyValue(value any) *Deferred {
	r.mu.Lock()
	if r.removed {
		r.mu.Unlock()
		return completedDeferred(nil)
	}
	pending, version := r.pending, r.version
	if pending == nil {
		err := r.setControlValueLocked(value)
		r.mu.Unlock()
		r.set.changed()
		return completedDeferred(err)
	}
	r.mu.Unlock()

	out := newDeferred()
	r.set.wg.Go(func() {
		<-pending.Done()
		if err := pending.Err(); err != nil {
			out.finish(err)
			return
		}

		r.mu.Lock()
		if r.removed || r.version != version {
			r.mu.Unlock()
			out.finish(nil)
			return
		}
		err := r.setControlValueLocked(value)
		r.mu.Unlock()

		r.set.changed()
		out.finish(err)
	})
	return out
}

func (r *Row) setControlValueLocked(value any) error {
	if r.control == nil {
		return nil
	}
	if err := r.control.SetValue(value); err != nil {
		return fmt.Errorf("failed to set value on %s: %w", r.field.Name, err)
	}
	return nil
}

// Value returns the canonical filter tuple. ok is false for removed rows and
// rows without a field.
func (r *Row) Value() (models.FilterCondition, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.removed || r.field == nil || r.control == nil {
		return models.FilterCondition{}, false
	}
	return models.FilterCondition{
		RecordType: r.recordType,
		Field:      r.field.Name,
		Operator:   r.condition,
		Value:      SelectedValue(r.control.Value(), r.condition, *r.field),
		Hidden:     r.hidden,
	}, true
}

// DisplayValue renders the current value for display
func (r *Row) DisplayValue(f ValueFormatter) string {
	cond, ok := r.Value()
	if !ok {
		return ""
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.field == nil {
		return ""
	}
	return FormattedValue(f, *r.field, cond.Value)
}

// Remove detaches the row. Later operations on it are no-ops.
func (r *Row) Remove() {
	r.mu.Lock()
	if r.removed {
		r.mu.Unlock()
		return
	}
	r.removeLocked()
	r.mu.Unlock()

	r.set.detach(r)
	r.set.changed()
}

func (r *Row) removeLocked() {
	r.removed = true
	r.version++
	r.field = nil
	r.control = nil
	r.visible = nil
	r.pending = nil
}

// Removed reports whether the row has been removed
func (r *Row) Removed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removed
}

// Condition returns the selected condition
func (r *Row) Condition() models.FilterOperator {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.condition
}

// Descriptor returns the adapted descriptor of the current control
func (r *Row) Descriptor() (models.FieldDescriptor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.field == nil {
		return models.FieldDescriptor{}, false
	}
	return *r.field, true
}

// Control returns the current value editor, nil when no field is set
func (r *Row) Control() EditableControl {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.control
}

// Hint returns the usage hint attached to the control
func (r *Row) Hint() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.control == nil {
		return ""
	}
	return r.control.Hint()
}

// VisibleConditions returns the conditions offered for the current field
func (r *Row) VisibleConditions() []models.ConditionEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.visible)
}

// Pending reports whether a field resolution is in flight
func (r *Row) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending != nil
}

// SetHidden marks the row as hidden from the filter area
func (r *Row) SetHidden(hidden bool) {
	r.mu.Lock()
	r.hidden = hidden
	r.mu.Unlock()
}
