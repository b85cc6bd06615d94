package migrator

const migration_2 = `
CREATE TABLE <SCHEMA_PLACEHOLDER>.rc_medicine_stock(
    id uuid not null default(uuid_generate_v4()),
    "name" varchar(255) not null,
    unit varchar(32) not null,
    quantity numeric(12,3) not null default(0),
    min_stock numeric(12,3) not null default(0),
    expires_at date null,
    created_at timestamp not null default(timezone('utc', now())),
    modified_at timestamp null,
    constraint pk_rc_medicine_stock primary key (id),
    constraint rc_unique_medicine_stock_name unique ("name"),
    constraint rc_check_medicine_stock_quantity check (quantity >= 0)
);
`
