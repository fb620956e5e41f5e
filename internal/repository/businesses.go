package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/directory-scraper/internal/dto"
	"github.com/octobees/directory-scraper/internal/entity"
)

// BusinessesRepository describes persistence operations for scraped
// business listings.
type BusinessesRepository interface {
	Upsert(ctx context.Context, business *entity.Business) error
	List(ctx context.Context, filter dto.ListFilter) ([]entity.Business, error)
}

// pgxPool is the subset of pgxpool.Pool the repository relies on, kept
// narrow so tests can stub it.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGXBusinessesRepository implements BusinessesRepository using pgx.
type PGXBusinessesRepository struct {
	pool pgxPool
}

// NewPGXBusinessesRepository wires a pgx backed repository.
func NewPGXBusinessesRepository(pool *pgxpool.Pool) *PGXBusinessesRepository {
	return &PGXBusinessesRepository{pool: pool}
}

var _ pgxPool = (*pgxpool.Pool)(nil)

// Upsert inserts or updates a listing keyed by source_url. On conflict,
// only the fields the incoming record actually carries overwrite the
// existing row: a partial re-scrape must not erase previously captured
// detail-page data.
func (r *PGXBusinessesRepository) Upsert(ctx context.Context, business *entity.Business) error {
	if business == nil {
		return fmt.Errorf("business payload is nil")
	}
	if business.Name == "" || business.SourceURL == "" {
		return fmt.Errorf("business name and source_url are required")
	}

	amenities, err := jsonListOrNil(business.Amenities)
	if err != nil {
		return fmt.Errorf("marshal amenities: %w", err)
	}
	images, err := jsonListOrNil(business.Images)
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}

	query := `
        INSERT INTO businesses (
            name,
            source,
            source_url,
            source_id,
            phone,
            email,
            website,
            address,
            city,
            state,
            zip_code,
            country,
            latitude,
            longitude,
            category,
            description,
            rating,
            review_count,
            hours,
            amenities,
            images,
            scraped_at,
            is_active,
            updated_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
            $13, $14, $15, $16, $17, $18, $19, $20::jsonb, $21::jsonb,
            COALESCE($22, NOW()), $23, NOW()
        )
        ON CONFLICT (source_url) DO UPDATE SET
            name = EXCLUDED.name,
            source = EXCLUDED.source,
            source_id = COALESCE(EXCLUDED.source_id, businesses.source_id),
            phone = COALESCE(EXCLUDED.phone, businesses.phone),
            email = COALESCE(EXCLUDED.email, businesses.email),
            website = COALESCE(EXCLUDED.website, businesses.website),
            address = COALESCE(EXCLUDED.address, businesses.address),
            city = COALESCE(EXCLUDED.city, businesses.city),
            state = COALESCE(EXCLUDED.state, businesses.state),
            zip_code = COALESCE(EXCLUDED.zip_code, businesses.zip_code),
            country = COALESCE(EXCLUDED.country, businesses.country),
            latitude = COALESCE(EXCLUDED.latitude, businesses.latitude),
            longitude = COALESCE(EXCLUDED.longitude, businesses.longitude),
            category = COALESCE(EXCLUDED.category, businesses.category),
            description = COALESCE(EXCLUDED.description, businesses.description),
            rating = COALESCE(EXCLUDED.rating, businesses.rating),
            review_count = COALESCE(EXCLUDED.review_count, businesses.review_count),
            hours = COALESCE(EXCLUDED.hours, businesses.hours),
            amenities = COALESCE(EXCLUDED.amenities, businesses.amenities),
            images = COALESCE(EXCLUDED.images, businesses.images),
            scraped_at = COALESCE(EXCLUDED.scraped_at, businesses.scraped_at),
            is_active = EXCLUDED.is_active,
            updated_at = NOW();
    `

	_, err = r.pool.Exec(ctx, query,
		business.Name,
		business.Source,
		business.SourceURL,
		business.SourceID,
		business.Phone,
		business.Email,
		business.Website,
		business.Address,
		business.City,
		business.State,
		business.ZipCode,
		business.Country,
		business.Latitude,
		business.Longitude,
		business.Category,
		business.Description,
		business.Rating,
		business.ReviewCount,
		business.Hours,
		amenities,
		images,
		business.ScrapedAt,
		business.IsActive,
	)
	if err != nil {
		return fmt.Errorf("upsert business: %w", err)
	}

	return nil
}

// List retrieves businesses matching the provided filter, sorted by rating
// then review count.
func (r *PGXBusinessesRepository) List(ctx context.Context, filter dto.ListFilter) ([]entity.Business, error) {
	baseQuery := strings.Builder{}
	baseQuery.WriteString(`
        SELECT
            id,
            name,
            source,
            source_url,
            source_id,
            phone,
            email,
            website,
            address,
            city,
            state,
            zip_code,
            country,
            latitude,
            longitude,
            category,
            description,
            rating,
            review_count,
            hours,
            amenities,
            images,
            scraped_at,
            updated_at,
            is_active
        FROM businesses
    `)

	var (
		clauses []string
		args    []any
		idx     = 1
	)

	if filter.Q != "" {
		pattern := fmt.Sprintf("%%%s%%", filter.Q)
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR address ILIKE $%d)", idx, idx+1))
		args = append(args, pattern, pattern)
		idx += 2
	}
	if filter.Source != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(source) = LOWER($%d)", idx))
		args = append(args, filter.Source)
		idx++
	}
	if filter.Category != "" {
		pattern := fmt.Sprintf("%%%s%%", filter.Category)
		clauses = append(clauses, fmt.Sprintf("category ILIKE $%d", idx))
		args = append(args, pattern)
		idx++
	}
	if filter.City != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(city) = LOWER($%d)", idx))
		args = append(args, filter.City)
		idx++
	}
	if filter.State != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(state) = LOWER($%d)", idx))
		args = append(args, filter.State)
		idx++
	}
	if filter.MinRating != nil {
		clauses = append(clauses, fmt.Sprintf("rating >= $%d", idx))
		args = append(args, *filter.MinRating)
		idx++
	}
	if filter.ActiveOnly {
		clauses = append(clauses, "is_active")
	}
	if filter.ScrapedSince != nil {
		clauses = append(clauses, fmt.Sprintf("scraped_at >= $%d", idx))
		args = append(args, *filter.ScrapedSince)
		idx++
	}

	if len(clauses) > 0 {
		baseQuery.WriteString(" WHERE ")
		baseQuery.WriteString(strings.Join(clauses, " AND "))
	}

	baseQuery.WriteString(" ORDER BY rating DESC NULLS LAST, review_count DESC NULLS LAST, name ASC")

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	offset := (page - 1) * perPage
	baseQuery.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", idx, idx+1))
	args = append(args, perPage, offset)

	rows, err := r.pool.Query(ctx, baseQuery.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	defer rows.Close()

	return scanBusinesses(rows)
}

func scanBusinesses(rows pgx.Rows) ([]entity.Business, error) {
	var businesses []entity.Business
	for rows.Next() {
		var (
			b           entity.Business
			sourceID    sql.NullString
			phone       sql.NullString
			email       sql.NullString
			website     sql.NullString
			address     sql.NullString
			city        sql.NullString
			state       sql.NullString
			zipCode     sql.NullString
			country     sql.NullString
			latitude    sql.NullFloat64
			longitude   sql.NullFloat64
			category    sql.NullString
			description sql.NullString
			rating      sql.NullFloat64
			reviewCount sql.NullInt64
			hours       sql.NullString
			amenities   []byte
			images      []byte
			scrapedAt   sql.NullTime
		)

		err := rows.Scan(
			&b.ID,
			&b.Name,
			&b.Source,
			&b.SourceURL,
			&sourceID,
			&phone,
			&email,
			&website,
			&address,
			&city,
			&state,
			&zipCode,
			&country,
			&latitude,
			&longitude,
			&category,
			&description,
			&rating,
			&reviewCount,
			&hours,
			&amenities,
			&images,
			&scrapedAt,
			&b.UpdatedAt,
			&b.IsActive,
		)
		if err != nil {
			return nil, fmt.Errorf("scan business: %w", err)
		}

		b.SourceID = nullStringToPtr(sourceID)
		b.Phone = nullStringToPtr(phone)
		b.Email = nullStringToPtr(email)
		b.Website = nullStringToPtr(website)
		b.Address = nullStringToPtr(address)
		b.City = nullStringToPtr(city)
		b.State = nullStringToPtr(state)
		b.ZipCode = nullStringToPtr(zipCode)
		b.Country = nullStringToPtr(country)
		if latitude.Valid {
			val := latitude.Float64
			b.Latitude = &val
		}
		if longitude.Valid {
			val := longitude.Float64
			b.Longitude = &val
		}
		b.Category = nullStringToPtr(category)
		b.Description = nullStringToPtr(description)
		if rating.Valid {
			val := rating.Float64
			b.Rating = &val
		}
		if reviewCount.Valid {
			cast := int(reviewCount.Int64)
			b.ReviewCount = &cast
		}
		b.Hours = nullStringToPtr(hours)
		if len(amenities) > 0 {
			if err := json.Unmarshal(amenities, &b.Amenities); err != nil {
				return nil, fmt.Errorf("unmarshal amenities: %w", err)
			}
		}
		if len(images) > 0 {
			if err := json.Unmarshal(images, &b.Images); err != nil {
				return nil, fmt.Errorf("unmarshal images: %w", err)
			}
		}
		if scrapedAt.Valid {
			ts := scrapedAt.Time
			b.ScrapedAt = &ts
		}

		businesses = append(businesses, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate businesses: %w", err)
	}
	return businesses, nil
}

func nullStringToPtr(value sql.NullString) *string {
	if value.Valid {
		val := value.String
		return &val
	}
	return nil
}

// jsonListOrNil serializes a capped list, keeping NULL for absent lists so
// the merge upsert preserves previously stored values.
func jsonListOrNil(values []string) (any, error) {
	if len(values) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
