package sqlite

var initQueries = []string{
	`
CREATE TABLE IF NOT EXISTS tasklists (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	name  TEXT NOT NULL,
	color INTEGER NOT NULL DEFAULT 0,
	owner TEXT NOT NULL DEFAULT ''
);`,
	`
CREATE TABLE IF NOT EXISTS tasks (
	id                        INTEGER PRIMARY KEY AUTOINCREMENT,
	list_id                   INTEGER NOT NULL REFERENCES tasklists(id),
	uid                       TEXT NOT NULL DEFAULT '',
	sync_id                   TEXT NOT NULL DEFAULT '',
	title                     TEXT NOT NULL DEFAULT '',
	description               TEXT NOT NULL DEFAULT '',
	dtstart                   INTEGER,
	due                       INTEGER,
	duration                  INTEGER,
	tz                        TEXT,
	is_allday                 INTEGER NOT NULL DEFAULT 0,
	rrule                     TEXT NOT NULL DEFAULT '',
	rdate                     TEXT NOT NULL DEFAULT '',
	exdate                    TEXT NOT NULL DEFAULT '',
	original_instance_id      INTEGER,
	original_instance_sync_id TEXT NOT NULL DEFAULT '',
	original_instance_time    INTEGER,
	original_instance_allday  INTEGER NOT NULL DEFAULT 0,
	parent_id                 INTEGER,
	status                    INTEGER NOT NULL DEFAULT 0,
	percent_complete          INTEGER NOT NULL DEFAULT 0,
	deleted                   INTEGER NOT NULL DEFAULT 0,
	dirty                     INTEGER NOT NULL DEFAULT 1,
	created                   INTEGER NOT NULL,
	modified                  INTEGER NOT NULL
);`,
	`
CREATE TABLE IF NOT EXISTS instances (
	id                     INTEGER PRIMARY KEY AUTOINCREMENT,
	task_id                INTEGER NOT NULL REFERENCES tasks(id),
	instance_start         INTEGER,
	instance_due           INTEGER,
	instance_duration      INTEGER,
	instance_start_sorting INTEGER,
	instance_due_sorting   INTEGER,
	instance_original_time INTEGER NOT NULL DEFAULT 0,
	distance_from_current  INTEGER NOT NULL DEFAULT 0
);`,
	`
CREATE TABLE IF NOT EXISTS properties (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	task_id     INTEGER NOT NULL REFERENCES tasks(id),
	kind        TEXT NOT NULL,
	rel_type    INTEGER NOT NULL DEFAULT 0,
	related_id  INTEGER,
	related_uid TEXT NOT NULL DEFAULT ''
);`,
	`CREATE INDEX IF NOT EXISTS tasks_list_idx ON tasks (list_id);`,
	`CREATE INDEX IF NOT EXISTS tasks_sync_idx ON tasks (sync_id);`,
	`CREATE INDEX IF NOT EXISTS tasks_original_idx ON tasks (original_instance_id);`,
	`CREATE INDEX IF NOT EXISTS tasks_original_sync_idx ON tasks (original_instance_sync_id);`,
	`CREATE INDEX IF NOT EXISTS instances_task_idx ON instances (task_id);`,
	`CREATE INDEX IF NOT EXISTS instances_original_time_idx ON instances (instance_original_time);`,
	`CREATE INDEX IF NOT EXISTS instances_distance_idx ON instances (distance_from_current);`,
	`CREATE INDEX IF NOT EXISTS properties_task_idx ON properties (task_id);`,
	`CREATE INDEX IF NOT EXISTS properties_related_idx ON properties (related_id);`,
}
