package migrator

const migration_1 = `
CREATE TABLE <SCHEMA_PLACEHOLDER>.rc_animals(
    id uuid not null default(uuid_generate_v4()),
    ear_tag varchar(64) not null,
    "name" varchar(255) not null default(''),
    breed varchar(128) not null default(''),
    sex varchar(16) not null,
    birth_date date null,
    weight_kg numeric(10,2) not null default(0),
    latitude double precision null,
    longitude double precision null,
    address varchar(512) not null default(''),
    status varchar(32) not null default('ACTIVE'),
    created_at timestamp not null default(timezone('utc', now())),
    modified_at timestamp null,
    deleted_at timestamp null,
    constraint pk_rc_animals primary key (id)
);

CREATE UNIQUE INDEX rc_idx_animals_ear_tag ON <SCHEMA_PLACEHOLDER>.rc_animals(ear_tag) WHERE deleted_at IS NULL;
`
