package store

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS customers (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT NOT NULL CHECK (length(name) <= 100),
    phone       TEXT NOT NULL CHECK (length(phone) <= 15),
    email       TEXT NOT NULL CHECK (length(email) <= 50),
    number      INTEGER NOT NULL CHECK (number >= 0),
    postal_code TEXT NOT NULL CHECK (postal_code GLOB '[0-9][0-9][0-9][0-9][0-9]-[0-9][0-9][0-9]'),
    complement  TEXT,
    street      TEXT
);

CREATE TABLE IF NOT EXISTS products (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT NOT NULL,
    description TEXT,
    stock       INTEGER NOT NULL DEFAULT 0,
    threshold   INTEGER NOT NULL DEFAULT 0,
    unit_cost   NUMERIC NOT NULL CHECK (unit_cost >= 0)
);

CREATE TABLE IF NOT EXISTS raw_materials (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT NOT NULL,
    unit_cost   NUMERIC NOT NULL CHECK (unit_cost >= 0),
    stock       INTEGER NOT NULL DEFAULT 0,
    threshold   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS bill_of_materials (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    product_id      INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    raw_material_id INTEGER NOT NULL REFERENCES raw_materials(id) ON DELETE CASCADE,
    quantity        INTEGER NOT NULL CHECK (quantity > 0),
    UNIQUE (product_id, raw_material_id)
);
CREATE INDEX IF NOT EXISTS idx_bom_product ON bill_of_materials(product_id);

CREATE TABLE IF NOT EXISTS orders (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    order_date     TEXT NOT NULL,
    delivery_date  TEXT,
    status         TEXT NOT NULL CHECK (status IN ('Pending', 'Processed', 'Delivered')),
    payment_method TEXT NOT NULL CHECK (payment_method IN ('Credit Card', 'Debit Card', 'Cash', 'Pix')),
    payment_date   TEXT NOT NULL,
    customer_id    INTEGER NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
    CHECK (payment_date >= order_date),
    CHECK (delivery_date IS NULL OR (delivery_date >= order_date AND delivery_date >= payment_date))
);
CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id);
CREATE INDEX IF NOT EXISTS idx_orders_date ON orders(order_date);

CREATE TABLE IF NOT EXISTS order_lines (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id   INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    quantity   INTEGER NOT NULL CHECK (quantity > 0),
    UNIQUE (order_id, product_id)
);

CREATE TABLE IF NOT EXISTS production_orders (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    status          TEXT NOT NULL CHECK (status IN ('Pending', 'Completed')),
    total_cost      NUMERIC CHECK (total_cost IS NULL OR total_cost >= 0),
    created_date    TEXT NOT NULL,
    completed_date  TEXT,
    CHECK (completed_date IS NULL OR completed_date >= created_date)
);

CREATE TABLE IF NOT EXISTS production_order_lines (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    production_order_id INTEGER NOT NULL REFERENCES production_orders(id) ON DELETE CASCADE,
    product_id          INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    quantity            INTEGER NOT NULL CHECK (quantity > 0),
    UNIQUE (production_order_id, product_id)
);

CREATE TABLE IF NOT EXISTS suppliers (
    id     INTEGER PRIMARY KEY AUTOINCREMENT,
    name   TEXT NOT NULL,
    rating NUMERIC CHECK (rating IS NULL OR (rating >= 0 AND rating <= 5)),
    phone  TEXT NOT NULL,
    email  TEXT NOT NULL CHECK (email LIKE '%_@_%._%')
);

CREATE TABLE IF NOT EXISTS supply_offers (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    supplier_id     INTEGER NOT NULL REFERENCES suppliers(id) ON DELETE CASCADE,
    raw_material_id INTEGER NOT NULL REFERENCES raw_materials(id) ON DELETE CASCADE,
    price           NUMERIC NOT NULL CHECK (price > 0),
    UNIQUE (supplier_id, raw_material_id)
);

CREATE TABLE IF NOT EXISTS employees (
    id     INTEGER PRIMARY KEY AUTOINCREMENT,
    name   TEXT NOT NULL,
    role   TEXT NOT NULL,
    salary NUMERIC NOT NULL CHECK (salary > 0)
);

CREATE TABLE IF NOT EXISTS order_employees (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    employee_id INTEGER NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
    order_id    INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    UNIQUE (employee_id, order_id)
);

CREATE TABLE IF NOT EXISTS production_order_employees (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    employee_id         INTEGER NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
    production_order_id INTEGER NOT NULL REFERENCES production_orders(id) ON DELETE CASCADE,
    UNIQUE (employee_id, production_order_id)
);

CREATE TABLE IF NOT EXISTS stock_movements (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    item_kind   TEXT NOT NULL CHECK (item_kind IN ('product', 'raw_material')),
    item_id     INTEGER NOT NULL,
    delta       INTEGER NOT NULL,
    stock_after INTEGER NOT NULL,
    reason      TEXT NOT NULL,
    source_kind TEXT NOT NULL DEFAULT '',
    source_id   INTEGER NOT NULL DEFAULT 0,
    actor       TEXT NOT NULL DEFAULT 'system',
    created_at  TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);
CREATE INDEX IF NOT EXISTS idx_movements_item ON stock_movements(item_kind, item_id);

CREATE TABLE IF NOT EXISTS outbox (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    topic       TEXT NOT NULL,
    payload     BLOB NOT NULL,
    msg_type    TEXT NOT NULL DEFAULT '',
    source_id   TEXT NOT NULL DEFAULT '',
    retries     INTEGER NOT NULL DEFAULT 0,
    created_at  TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    sent_at     TEXT
);
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(sent_at) WHERE sent_at IS NULL;

CREATE TABLE IF NOT EXISTS audit_log (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    entity_type TEXT NOT NULL,
    entity_id   INTEGER NOT NULL DEFAULT 0,
    action      TEXT NOT NULL,
    old_value   TEXT NOT NULL DEFAULT '',
    new_value   TEXT NOT NULL DEFAULT '',
    actor       TEXT NOT NULL DEFAULT 'system',
    created_at  TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);
CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_log(entity_type, entity_id);

CREATE TABLE IF NOT EXISTS admin_users (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);
`
