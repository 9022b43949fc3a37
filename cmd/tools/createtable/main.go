package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN environment variable is required")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get DB: %v", err)
	}

	sql := `
	CREATE TABLE IF NOT EXISTS products (
	  id CHAR(36) NOT NULL,
	  name VARCHAR(255) NOT NULL,
	  slug VARCHAR(255) NOT NULL,
	  description TEXT,
	  status VARCHAR(16) NOT NULL DEFAULT 'active',
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_products_slug (slug)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS product_variants (
	  id CHAR(36) NOT NULL,
	  product_id CHAR(36) NOT NULL,
	  sku VARCHAR(64) NOT NULL,
	  title VARCHAR(255) NOT NULL,
	  price_cents BIGINT NOT NULL,
	  currency CHAR(3) NOT NULL DEFAULT 'EUR',
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_product_variants_product_id (product_id),
	  CONSTRAINT fk_product_variants_product FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS product_images (
	  id CHAR(36) NOT NULL,
	  product_id CHAR(36) NOT NULL,
	  url VARCHAR(512) NOT NULL,
	  position INT NOT NULL DEFAULT 0,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_product_images_product_id (product_id),
	  CONSTRAINT fk_product_images_product FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS customers (
	  id CHAR(36) NOT NULL,
	  email VARCHAR(255) NOT NULL,
	  name VARCHAR(255),
	  guest TINYINT(1) NOT NULL DEFAULT 1,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_customers_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS checkouts (
	  id VARCHAR(32) NOT NULL,
	  email VARCHAR(255),
	  customer_name VARCHAR(255),
	  shipping_address_json JSON,
	  shipping_rate_id VARCHAR(32),
	  subtotal_cents BIGINT NOT NULL DEFAULT 0,
	  shipping_cents BIGINT NOT NULL DEFAULT 0,
	  tax_cents BIGINT NOT NULL DEFAULT 0,
	  total_cents BIGINT NOT NULL DEFAULT 0,
	  currency CHAR(3) NOT NULL DEFAULT 'EUR',
	  status VARCHAR(16) NOT NULL DEFAULT 'open',
	  payment_provider VARCHAR(64),
	  payment_ref VARCHAR(128),
	  order_id CHAR(36),
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
	  expires_at DATETIME(3) NOT NULL,
	  completed_at DATETIME(3),
	  PRIMARY KEY (id),
	  KEY ix_checkouts_status (status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS checkout_items (
	  id CHAR(36) NOT NULL,
	  checkout_id VARCHAR(32) NOT NULL,
	  product_id CHAR(36) NOT NULL,
	  variant_id CHAR(36) NOT NULL,
	  product_name VARCHAR(255) NOT NULL,
	  sku VARCHAR(64) NOT NULL,
	  image_url VARCHAR(512),
	  unit_price_cents BIGINT NOT NULL,
	  quantity INT NOT NULL,
	  line_total_cents BIGINT NOT NULL,
	  currency CHAR(3) NOT NULL DEFAULT 'EUR',
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_checkout_items_checkout_id (checkout_id),
	  CONSTRAINT fk_checkout_items_checkout FOREIGN KEY (checkout_id) REFERENCES checkouts(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS orders (
	  id CHAR(36) NOT NULL,
	  order_number BIGINT NOT NULL,
	  checkout_id VARCHAR(32) NOT NULL,
	  customer_id CHAR(36),
	  email VARCHAR(255) NOT NULL,
	  shipping_address_json JSON,
	  subtotal_cents BIGINT NOT NULL,
	  shipping_cents BIGINT NOT NULL,
	  tax_cents BIGINT NOT NULL,
	  total_cents BIGINT NOT NULL,
	  currency CHAR(3) NOT NULL,
	  status VARCHAR(32) NOT NULL DEFAULT 'pending',
	  payment_status VARCHAR(32) NOT NULL DEFAULT 'pending',
	  fulfillment_status VARCHAR(32) NOT NULL DEFAULT 'unfulfilled',
	  payment_provider VARCHAR(64),
	  payment_ref VARCHAR(128),
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
	  paid_at DATETIME(3),
	  cancelled_at DATETIME(3),
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_orders_order_number (order_number),
	  UNIQUE KEY ux_orders_checkout_id (checkout_id),
	  KEY ix_orders_customer_id (customer_id),
	  KEY ix_orders_email (email),
	  KEY ix_orders_status (status),
	  KEY ix_orders_provider_ref (payment_provider, payment_ref)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS order_items (
	  id CHAR(36) NOT NULL,
	  order_id CHAR(36) NOT NULL,
	  product_id CHAR(36) NOT NULL,
	  variant_id CHAR(36) NOT NULL,
	  product_name VARCHAR(255) NOT NULL,
	  sku VARCHAR(64) NOT NULL,
	  image_url VARCHAR(512),
	  unit_price_cents BIGINT NOT NULL,
	  quantity INT NOT NULL,
	  line_total_cents BIGINT NOT NULL,
	  currency CHAR(3) NOT NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_order_items_order_id (order_id),
	  KEY ix_order_items_variant_id (variant_id),
	  CONSTRAINT fk_order_items_order FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS order_status_changes (
	  id CHAR(36) NOT NULL,
	  order_id CHAR(36) NOT NULL,
	  field VARCHAR(32) NOT NULL,
	  from_value VARCHAR(32) NOT NULL,
	  to_value VARCHAR(32) NOT NULL,
	  actor_id VARCHAR(64) NOT NULL,
	  reason VARCHAR(255),
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_order_status_changes_order_created (order_id, created_at),
	  CONSTRAINT fk_order_status_changes_order FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS processed_webhook_events (
	  id CHAR(36) NOT NULL,
	  provider VARCHAR(64) NOT NULL,
	  event_id VARCHAR(128) NOT NULL,
	  event_type VARCHAR(64) NOT NULL,
	  payload_json JSON,
	  order_id CHAR(36),
	  received_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_webhook_events_provider_event (provider, event_id),
	  KEY ix_webhook_events_order_id (order_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS sequences (
	  name VARCHAR(32) NOT NULL,
	  value BIGINT NOT NULL,
	  PRIMARY KEY (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`

	if _, err := sqlDB.Exec(sql); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	log.Println("✓ all tables created successfully")
}
