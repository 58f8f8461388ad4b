package store

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS customers (
    id          BIGSERIAL PRIMARY KEY,
    name        VARCHAR(100) NOT NULL,
    phone       VARCHAR(15) NOT NULL,
    email       VARCHAR(50) NOT NULL CHECK (email ~ '^[\w.-]+@[\w.-]+\.\w+$'),
    number      INTEGER NOT NULL CHECK (number >= 0),
    postal_code VARCHAR(9) NOT NULL CHECK (postal_code ~ '^\d{5}-\d{3}$'),
    complement  VARCHAR(100),
    street      VARCHAR(100)
);

CREATE TABLE IF NOT EXISTS products (
    id          BIGSERIAL PRIMARY KEY,
    name        VARCHAR(100) NOT NULL,
    description TEXT,
    stock       INTEGER NOT NULL DEFAULT 0,
    threshold   INTEGER NOT NULL DEFAULT 0,
    unit_cost   NUMERIC(10,2) NOT NULL CHECK (unit_cost >= 0)
);

CREATE TABLE IF NOT EXISTS raw_materials (
    id          BIGSERIAL PRIMARY KEY,
    name        VARCHAR(100) NOT NULL,
    unit_cost   NUMERIC(10,2) NOT NULL CHECK (unit_cost >= 0),
    stock       INTEGER NOT NULL DEFAULT 0,
    threshold   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS bill_of_materials (
    id              BIGSERIAL PRIMARY KEY,
    product_id      BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    raw_material_id BIGINT NOT NULL REFERENCES raw_materials(id) ON DELETE CASCADE,
    quantity        INTEGER NOT NULL CHECK (quantity > 0),
    UNIQUE (product_id, raw_material_id)
);
CREATE INDEX IF NOT EXISTS idx_bom_product ON bill_of_materials(product_id);

CREATE TABLE IF NOT EXISTS orders (
    id             BIGSERIAL PRIMARY KEY,
    order_date     DATE NOT NULL,
    delivery_date  DATE,
    status         VARCHAR(20) NOT NULL CHECK (status IN ('Pending', 'Processed', 'Delivered')),
    payment_method VARCHAR(20) NOT NULL CHECK (payment_method IN ('Credit Card', 'Debit Card', 'Cash', 'Pix')),
    payment_date   DATE NOT NULL,
    customer_id    BIGINT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
    CHECK (payment_date >= order_date),
    CHECK (delivery_date IS NULL OR (delivery_date >= order_date AND delivery_date >= payment_date))
);
CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id);
CREATE INDEX IF NOT EXISTS idx_orders_date ON orders(order_date);

CREATE TABLE IF NOT EXISTS order_lines (
    id         BIGSERIAL PRIMARY KEY,
    order_id   BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    quantity   INTEGER NOT NULL CHECK (quantity > 0),
    UNIQUE (order_id, product_id)
);

CREATE TABLE IF NOT EXISTS production_orders (
    id              BIGSERIAL PRIMARY KEY,
    status          VARCHAR(20) NOT NULL CHECK (status IN ('Pending', 'Completed')),
    total_cost      NUMERIC(10,2) CHECK (total_cost IS NULL OR total_cost >= 0),
    created_date    DATE NOT NULL,
    completed_date  DATE,
    CHECK (completed_date IS NULL OR completed_date >= created_date)
);

CREATE TABLE IF NOT EXISTS production_order_lines (
    id                  BIGSERIAL PRIMARY KEY,
    production_order_id BIGINT NOT NULL REFERENCES production_orders(id) ON DELETE CASCADE,
    product_id          BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    quantity            INTEGER NOT NULL CHECK (quantity > 0),
    UNIQUE (production_order_id, product_id)
);

CREATE TABLE IF NOT EXISTS suppliers (
    id     BIGSERIAL PRIMARY KEY,
    name   VARCHAR(100) NOT NULL,
    rating NUMERIC(3,2) CHECK (rating IS NULL OR (rating >= 0 AND rating <= 5)),
    phone  VARCHAR(15) NOT NULL,
    email  VARCHAR(50) NOT NULL CHECK (email ~ '^[\w.-]+@[\w.-]+\.\w+$')
);

CREATE TABLE IF NOT EXISTS supply_offers (
    id              BIGSERIAL PRIMARY KEY,
    supplier_id     BIGINT NOT NULL REFERENCES suppliers(id) ON DELETE CASCADE,
    raw_material_id BIGINT NOT NULL REFERENCES raw_materials(id) ON DELETE CASCADE,
    price           NUMERIC(10,2) NOT NULL CHECK (price > 0),
    UNIQUE (supplier_id, raw_material_id)
);

CREATE TABLE IF NOT EXISTS employees (
    id     BIGSERIAL PRIMARY KEY,
    name   VARCHAR(100) NOT NULL,
    role   VARCHAR(50) NOT NULL,
    salary NUMERIC(10,2) NOT NULL CHECK (salary > 0)
);

CREATE TABLE IF NOT EXISTS order_employees (
    id          BIGSERIAL PRIMARY KEY,
    employee_id BIGINT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
    order_id    BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    UNIQUE (employee_id, order_id)
);

CREATE TABLE IF NOT EXISTS production_order_employees (
    id                  BIGSERIAL PRIMARY KEY,
    employee_id         BIGINT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
    production_order_id BIGINT NOT NULL REFERENCES production_orders(id) ON DELETE CASCADE,
    UNIQUE (employee_id, production_order_id)
);

CREATE TABLE IF NOT EXISTS stock_movements (
    id          BIGSERIAL PRIMARY KEY,
    item_kind   TEXT NOT NULL CHECK (item_kind IN ('product', 'raw_material')),
    item_id     BIGINT NOT NULL,
    delta       INTEGER NOT NULL,
    stock_after INTEGER NOT NULL,
    reason      TEXT NOT NULL,
    source_kind TEXT NOT NULL DEFAULT '',
    source_id   BIGINT NOT NULL DEFAULT 0,
    actor       TEXT NOT NULL DEFAULT 'system',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_movements_item ON stock_movements(item_kind, item_id);

CREATE TABLE IF NOT EXISTS outbox (
    id          BIGSERIAL PRIMARY KEY,
    topic       TEXT NOT NULL,
    payload     BYTEA NOT NULL,
    msg_type    TEXT NOT NULL DEFAULT '',
    source_id   TEXT NOT NULL DEFAULT '',
    retries     INTEGER NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    sent_at     TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(sent_at) WHERE sent_at IS NULL;

CREATE TABLE IF NOT EXISTS audit_log (
    id          BIGSERIAL PRIMARY KEY,
    entity_type TEXT NOT NULL,
    entity_id   BIGINT NOT NULL DEFAULT 0,
    action      TEXT NOT NULL,
    old_value   TEXT NOT NULL DEFAULT '',
    new_value   TEXT NOT NULL DEFAULT '',
    actor       TEXT NOT NULL DEFAULT 'system',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_log(entity_type, entity_id);

CREATE TABLE IF NOT EXISTS admin_users (
    id            BIGSERIAL PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
