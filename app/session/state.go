// Package session holds the per-product editor session: the working copy
// of a product's fields, specification values and images while an
// administrator edits it, and the state machine that guards submission.
package session

import (
	"errors"

	"github.com/shashiranjanraj/storeadmin/app/models"
	"github.com/shashiranjanraj/storeadmin/app/services"
)

// State is the editor's lifecycle state.
type State string

const (
	StateIdle       State = "idle"
	StateEditing    State = "editing"
	StateSubmitting State = "submitting"
	StateFailed     State = "failed"
)

// canEdit reports whether field edits are accepted in s.
func (s State) canEdit() bool { return s == StateEditing || s == StateFailed }

var (
	// ErrSubmitInFlight is returned by Submit while a previous submission
	// has not settled.
	ErrSubmitInFlight = errors.New("session: submit already in flight")
	// ErrNotEditing is returned for edits outside Editing or Failed.
	ErrNotEditing = errors.New("session: not editing")
	// ErrAlreadyOpen is returned by Open when the session is already open.
	ErrAlreadyOpen = errors.New("session: already open")
	// ErrClosed is returned when the session was closed while an operation
	// was running; the operation's result was discarded.
	ErrClosed = errors.New("session: closed")
	// ErrUploadNotFound is returned for an unknown upload key.
	ErrUploadNotFound = errors.New("session: upload not found")
	// ErrNotFound is returned by the Store for a product without a session.
	ErrNotFound = errors.New("session: not found")
)

// UploadStatus is the per-file upload status.
type UploadStatus string

const (
	UploadPending   UploadStatus = "pending"
	UploadUploading UploadStatus = "uploading"
	UploadDone      UploadStatus = "done"
	UploadFailed    UploadStatus = "failed"
)

// Upload is a file picked for one of the product's image slots.
type Upload struct {
	Key     string           `json:"key"`
	Slot    models.ImageSlot `json:"slot"`
	Name    string           `json:"name"`
	Status  UploadStatus     `json:"status"`
	URL     string           `json:"url,omitempty"`
	ImageID int64            `json:"image_id,omitempty"`
	Error   string           `json:"error,omitempty"`

	staged string // path on the staging disk
}

// Snapshot is an immutable copy of the editor's state.
type Snapshot struct {
	ProductID int64                            `json:"product_id"`
	State     State                            `json:"state"`
	Version   uint64                           `json:"version"`
	Product   models.Product                   `json:"product"`
	Schema    []models.SpecificationDefinition `json:"schema"`
	Values    models.WorkingValues             `json:"values"`
	Gallery   []models.ImageAttachment         `json:"gallery"`
	Uploads   []Upload                         `json:"uploads"`
	Error     string                           `json:"error,omitempty"`
	Result    *services.ReconcileResult        `json:"result,omitempty"`
}
