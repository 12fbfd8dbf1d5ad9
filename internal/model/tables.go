package model

// Index declares a secondary index over record fields. For compound indexes
// the field order matters: queries match leading fields exactly and may
// range over the next one.
type Index struct {
	Name   string
	Fields []string
}

// Table describes one entity table: its name, the archive folder its
// attachments are extracted into, and its declared indexes.
type Table struct {
	Name     string
	Category string
	Indexes  []Index
}

// Attachment category folders inside a backup archive.
const (
	CategoryVessel      = "Vessel"
	CategoryCrew        = "Crew"
	CategoryLogEntries  = "LogEntries"
	CategoryMaintenance = "Maintenance"
	CategoryStorage     = "Storage"
)

// Entity table names.
const (
	VesselsTable          = "vessels"
	CrewTable             = "crew"
	LogbookEntriesTable   = "logbook_entries"
	PassagesTable         = "passages"
	MaintenanceTasksTable = "maintenance_tasks"
	WatchEntriesTable     = "watch_entries"
	SafetyChecklistsTable = "safety_checklists"
	StorageAreasTable     = "storage_areas"
	StorageSectionsTable  = "storage_sections"
	StorageItemsTable     = "storage_items"
	SettingsTable         = "settings"
)

// Tables is the registry of all entity tables, in snapshot order. The
// serializer walks this list in full; the restore pipeline ignores snapshot
// tables that are not listed here.
var Tables = []Table{
	{Name: VesselsTable, Category: CategoryVessel, Indexes: []Index{
		{Name: "name", Fields: []string{"name"}},
	}},
	{Name: CrewTable, Category: CategoryCrew, Indexes: []Index{
		{Name: "name", Fields: []string{"name"}},
	}},
	{Name: LogbookEntriesTable, Category: CategoryLogEntries, Indexes: []Index{
		{Name: "date", Fields: []string{"date"}},
		{Name: "passage_date", Fields: []string{"passageId", "date"}},
	}},
	{Name: PassagesTable, Indexes: []Index{
		{Name: "start", Fields: []string{"start"}},
	}},
	{Name: MaintenanceTasksTable, Category: CategoryMaintenance, Indexes: []Index{
		{Name: "due", Fields: []string{"dueDate"}},
	}},
	{Name: WatchEntriesTable, Indexes: []Index{
		{Name: "passage_start", Fields: []string{"passageId", "start"}},
	}},
	{Name: SafetyChecklistsTable, Indexes: []Index{
		{Name: "name", Fields: []string{"name"}},
	}},
	{Name: StorageAreasTable},
	{Name: StorageSectionsTable, Indexes: []Index{
		{Name: "area", Fields: []string{"areaId"}},
	}},
	{Name: StorageItemsTable, Category: CategoryStorage, Indexes: []Index{
		{Name: "section", Fields: []string{"sectionId"}},
		{Name: "name", Fields: []string{"name"}},
	}},
	{Name: SettingsTable},
}

// TableByName looks up a table definition from the registry.
func TableByName(name string) (Table, bool) {
	for _, t := range Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// IndexByName looks up a declared index on a table.
func (t Table) IndexByName(name string) (Index, bool) {
	for _, idx := range t.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return Index{}, false
}
