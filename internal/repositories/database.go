package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/XSAM/otelsql"
	"github.com/akozlov/webstore/internal/config"
	"github.com/lib/pq"
	semconv "go.opentelemetry.io/otel/semconv/v1.25.0"
)

type Repositories struct {
	DB       *sql.DB
	User     UserRepository
	Category CategoryRepository
	Product  ProductRepository
	Variant  VariantRepository
	Cart     CartRepository
	Order    OrderRepository
	Review   ReviewRepository
}

func New(cfg *config.Config) (*Repositories, error) {

	db, err := otelsql.Open("postgres", cfg.Database.GetDSN(),
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)

	// Test the connection to make sure DB is reachable
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := initSchema(db); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Repositories{
		DB:       db,
		User:     NewUserRepo(db),
		Category: NewCategoryRepo(db),
		Product:  NewProductRepo(db),
		Variant:  NewVariantRepo(db),
		Cart:     NewCartRepo(db),
		Order:    NewOrderRepo(db),
		Review:   NewReviewRepo(db),
	}, nil
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation (duplicate email, duplicate review).
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error

	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		email VARCHAR(255) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		full_name VARCHAR(255) NOT NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'user',
		created_at TIMESTAMP DEFAULT NOW() NOT NULL,
		updated_at TIMESTAMP DEFAULT NOW() NOT NULL
	);

	CREATE TABLE IF NOT EXISTS categories (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name VARCHAR(100) NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS products (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		category_id UUID NOT NULL REFERENCES categories(id),
		name VARCHAR(200) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price NUMERIC(18,2) NOT NULL,
		image_path VARCHAR(500) NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT NOW() NOT NULL,
		updated_at TIMESTAMP DEFAULT NOW() NOT NULL
	);

	CREATE TABLE IF NOT EXISTS product_variants (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		size VARCHAR(50) NOT NULL,
		color VARCHAR(50) NOT NULL,
		stock_quantity INT NOT NULL DEFAULT 0,
		additional_price NUMERIC(18,2) NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS carts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID UNIQUE NOT NULL REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS cart_items (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		cart_id UUID NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
		product_variant_id UUID NOT NULL REFERENCES product_variants(id) ON DELETE CASCADE,
		quantity INT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		total_amount NUMERIC(18,2) NOT NULL,
		created_at TIMESTAMP DEFAULT NOW() NOT NULL,
		updated_at TIMESTAMP DEFAULT NOW() NOT NULL
	);

	CREATE TABLE IF NOT EXISTS order_items (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_variant_id UUID NOT NULL REFERENCES product_variants(id),
		quantity INT NOT NULL,
		price_at_purchase NUMERIC(18,2) NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reviews (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		rating INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
		comment TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT NOW() NOT NULL,
		UNIQUE (user_id, product_id)
	);
	`

	_, err := db.Exec(schema)

	return err
}
