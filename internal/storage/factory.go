package storage

// NewStorage creates a new SQLite storage instance
func NewStorage(dataDir, dbFile string) (Storage, error) {
	return NewSQLiteStorage(dataDir, dbFile)
}
