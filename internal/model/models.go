package model

// Typed views of the entity tables. The store and the backup pipeline work
// on generic Records; these structs exist for seeding defaults and for
// callers that want a concrete shape. Store-managed fields (id, createdAt,
// updatedAt) are declared here so typed round trips keep them.

// Vessel describes the boat this logbook belongs to.
type Vessel struct {
	ID           int64        `json:"id,omitempty"`
	Name         string       `json:"name"`
	Registration string       `json:"registration,omitempty"`
	Flag         string       `json:"flag,omitempty"`
	LengthM      float64      `json:"lengthM,omitempty"`
	BeamM        float64      `json:"beamM,omitempty"`
	DraftM       float64      `json:"draftM,omitempty"`
	Documents    []Attachment `json:"documents,omitempty"`
	CreatedAt    string       `json:"createdAt,omitempty"`
	UpdatedAt    string       `json:"updatedAt,omitempty"`
}

// CrewMember is one person sailing on the vessel.
type CrewMember struct {
	ID             int64        `json:"id,omitempty"`
	Name           string       `json:"name"`
	Role           string       `json:"role,omitempty"`
	Phone          string       `json:"phone,omitempty"`
	Email          string       `json:"email,omitempty"`
	PassportCopies []Attachment `json:"passportCopies,omitempty"`
	CreatedAt      string       `json:"createdAt,omitempty"`
	UpdatedAt      string       `json:"updatedAt,omitempty"`
}

// LogbookEntry is one dated entry, optionally tied to a passage.
type LogbookEntry struct {
	ID          int64        `json:"id,omitempty"`
	Date        string       `json:"date"`
	PassageID   int64        `json:"passageId,omitempty"`
	Position    string       `json:"position,omitempty"`
	CourseDeg   float64      `json:"courseDeg,omitempty"`
	SpeedKn     float64      `json:"speedKn,omitempty"`
	WindBft     int          `json:"windBft,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   string       `json:"createdAt,omitempty"`
	UpdatedAt   string       `json:"updatedAt,omitempty"`
}

// Passage groups log entries between a departure and an arrival.
type Passage struct {
	ID         int64   `json:"id,omitempty"`
	From       string  `json:"from"`
	To         string  `json:"to"`
	Start      string  `json:"start"`
	End        string  `json:"end,omitempty"`
	DistanceNm float64 `json:"distanceNm,omitempty"`
	CreatedAt  string  `json:"createdAt,omitempty"`
	UpdatedAt  string  `json:"updatedAt,omitempty"`
}

// MaintenanceTask tracks work on the vessel.
type MaintenanceTask struct {
	ID        int64        `json:"id,omitempty"`
	Title     string       `json:"title"`
	DueDate   string       `json:"dueDate,omitempty"`
	Done      bool         `json:"done,omitempty"`
	Notes     string       `json:"notes,omitempty"`
	Receipts  []Attachment `json:"receipts,omitempty"`
	CreatedAt string       `json:"createdAt,omitempty"`
	UpdatedAt string       `json:"updatedAt,omitempty"`
}

// WatchEntry records who had the watch during a passage.
type WatchEntry struct {
	ID        int64  `json:"id,omitempty"`
	PassageID int64  `json:"passageId"`
	CrewID    int64  `json:"crewId"`
	Start     string `json:"start"`
	End       string `json:"end,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// SafetyChecklist is a named list of check items, seeded with defaults.
type SafetyChecklist struct {
	ID        int64    `json:"id,omitempty"`
	Name      string   `json:"name"`
	Items     []string `json:"items"`
	CreatedAt string   `json:"createdAt,omitempty"`
	UpdatedAt string   `json:"updatedAt,omitempty"`
}

// StorageArea, StorageSection and StorageItem model the onboard inventory.
type StorageArea struct {
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

type StorageSection struct {
	ID        int64  `json:"id,omitempty"`
	AreaID    int64  `json:"areaId"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

type StorageItem struct {
	ID        int64  `json:"id,omitempty"`
	SectionID int64  `json:"sectionId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Settings is the single-row settings table. BackupDir is the persisted
// backup destination handle; LastBackupDate is written only after a backup
// fully succeeds.
type Settings struct {
	ID             int64  `json:"id,omitempty"`
	AutoBackup     bool   `json:"autoBackup"`
	LastBackupDate string `json:"lastBackupDate,omitempty"`
	BackupDir      string `json:"backupDir,omitempty"`
	Units          string `json:"units,omitempty"`
	Language       string `json:"language,omitempty"`
	CreatedAt      string `json:"createdAt,omitempty"`
	UpdatedAt      string `json:"updatedAt,omitempty"`
}

// Operation is one CLI invocation recorded in the operations table.
// Unlike entity records it is keyed by a UUID and excluded from snapshots.
type Operation struct {
	ID         string
	Name       string
	Status     string
	StartedAt  string
	FinishedAt string
}

// Operation statuses.
const (
	OperationRunning = "running"
	OperationOK      = "ok"
	OperationFailed  = "failed"
)
