package database

// schema is the full DDL for the service. Statements are idempotent so
// startup can apply them unconditionally; real migrations can take over once
// the schema stops moving.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS tos (
		id           text PRIMARY KEY,
		subject_id   text NOT NULL,
		subject_name text NOT NULL DEFAULT '',
		topics       jsonb NOT NULL DEFAULT '[]'::jsonb,
		active       boolean NOT NULL DEFAULT false,
		created_at   timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS tos_subject_idx ON tos (subject_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS tos_single_active_idx ON tos (subject_id) WHERE active`,

	`CREATE TABLE IF NOT EXISTS modules (
		id           text PRIMARY KEY,
		subject_id   text NOT NULL,
		title        text NOT NULL DEFAULT '',
		material_url text NOT NULL DEFAULT '',
		deleted      boolean NOT NULL DEFAULT false,
		created_at   timestamptz NOT NULL DEFAULT now(),
		updated_at   timestamptz NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS generated_summaries (
		seq          bigserial,
		id           text PRIMARY KEY,
		module_id    text NOT NULL,
		tos_id       text NOT NULL,
		run_id       text NOT NULL,
		text         text NOT NULL,
		tag          jsonb NOT NULL DEFAULT '{}'::jsonb,
		truncated    boolean NOT NULL DEFAULT false,
		generated_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS generated_summaries_module_idx ON generated_summaries (module_id, seq)`,

	`CREATE TABLE IF NOT EXISTS generated_quizzes (
		seq          bigserial,
		id           text PRIMARY KEY,
		module_id    text NOT NULL,
		tos_id       text NOT NULL,
		run_id       text NOT NULL,
		items        jsonb NOT NULL DEFAULT '[]'::jsonb,
		generated_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS generated_quizzes_module_idx ON generated_quizzes (module_id, seq)`,

	`CREATE TABLE IF NOT EXISTS generated_flashcard_decks (
		seq          bigserial,
		id           text PRIMARY KEY,
		module_id    text NOT NULL,
		tos_id       text NOT NULL,
		run_id       text NOT NULL,
		cards        jsonb NOT NULL DEFAULT '[]'::jsonb,
		generated_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS generated_flashcard_decks_module_idx ON generated_flashcard_decks (module_id, seq)`,

	`CREATE TABLE IF NOT EXISTS generation_runs (
		id          text PRIMARY KEY,
		module_id   text NOT NULL,
		state       text NOT NULL,
		stage       text NOT NULL DEFAULT '',
		reason      text,
		counts      jsonb,
		started_at  timestamptz NOT NULL DEFAULT now(),
		finished_at timestamptz
	)`,
	`CREATE INDEX IF NOT EXISTS generation_runs_module_idx ON generation_runs (module_id, started_at)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS generation_runs_single_running_idx ON generation_runs (module_id) WHERE state = 'running'`,

	`CREATE TABLE IF NOT EXISTS pipeline_events (
		id         bigserial PRIMARY KEY,
		run_id     text NOT NULL,
		module_id  text NOT NULL,
		event_type text NOT NULL,
		data       jsonb NOT NULL DEFAULT '{}'::jsonb,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS pipeline_events_run_idx ON pipeline_events (run_id)`,

	`CREATE TABLE IF NOT EXISTS activities (
		id           text PRIMARY KEY,
		user_id      text NOT NULL,
		subject_id   text NOT NULL DEFAULT '',
		topic        text NOT NULL DEFAULT '',
		bloom_level  text NOT NULL DEFAULT '',
		score        double precision NOT NULL,
		duration_sec integer NOT NULL DEFAULT 0,
		created_at   timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS activities_user_idx ON activities (user_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS motivation_messages (
		user_id              text PRIMARY KEY,
		override_text        text,
		override_updated_at  timestamptz,
		generated_text       text,
		generated_updated_at timestamptz
	)`,
}
