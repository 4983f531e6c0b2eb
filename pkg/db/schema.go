package db

const (
	// SchemaV1 defines the SQL statements for version 1 of the database schema.
	// This schema pertains to the 'contentdb' component.
	//
	// Timestamps are unix milliseconds written by the application so that the
	// store clock can be controlled in tests.
	SchemaV1 = `
CREATE TABLE IF NOT EXISTS readlater_versions (
    component TEXT PRIMARY KEY,
    version INTEGER NOT NULL,
    created_at REAL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS content_items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    content TEXT NOT NULL,
    source TEXT NOT NULL DEFAULT '',
    message_id INTEGER,
    chat_id INTEGER,
    content_type VARCHAR(16) CHECK (content_type IS NULL OR content_type IN ('text', 'video')),
    status VARCHAR(16) NOT NULL DEFAULT 'unread' CHECK (status IN ('unread', 'processed')),
    date_added INTEGER NOT NULL,
    date_read INTEGER,
    CHECK ((status = 'processed') = (date_read IS NOT NULL))
);

CREATE INDEX IF NOT EXISTS idx_content_items_user_added
    ON content_items (user_id, date_added DESC);

CREATE INDEX IF NOT EXISTS idx_content_items_user_status
    ON content_items (user_id, status);

CREATE TABLE IF NOT EXISTS tags (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    name VARCHAR(256) NOT NULL,
    created_at INTEGER NOT NULL,
    UNIQUE (user_id, name)
);

CREATE TABLE IF NOT EXISTS content_item_tags (
    content_item_id INTEGER NOT NULL REFERENCES content_items(id) ON DELETE CASCADE,
    tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
    PRIMARY KEY (content_item_id, tag_id)
);

CREATE INDEX IF NOT EXISTS idx_content_item_tags_tag
    ON content_item_tags (tag_id);
`
)
