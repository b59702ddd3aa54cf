package coupon

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"tapandbuy/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Import files hold one coupon per line:
//
//	CODE,type,value,min_order_value,min_items,max_uses,valid_until
//
// type is "percentage" or "fixed", max_uses and valid_until may be empty,
// valid_until is YYYY-MM-DD (inclusive, end of day UTC). Blank lines and lines
// starting with # are skipped.
const importFieldCount = 7

// fileLoader implements Loader for gzipped import files on local disk.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based coupon loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "coupon-loader").Logger(),
	}
}

// Load reads a gzipped coupon import file.
func (l *fileLoader) Load(ctx context.Context, filePath string) ([]model.Coupon, error) {
	l.logger.Info().Str("file", filePath).Msg("loading coupon file")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open coupon file")
		return nil, fmt.Errorf("failed to open coupon file %s: %w", filePath, err)
	}
	defer file.Close()

	coupons, err := readCouponFile(ctx, file, filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("error reading coupon file")
		return nil, err
	}

	l.logger.Info().
		Str("file", filePath).
		Int("coupons_loaded", len(coupons)).
		Msg("coupon file loaded successfully")

	return coupons, nil
}

// readCouponFile decompresses and parses an import file.
func readCouponFile(ctx context.Context, r io.Reader, source string) ([]model.Coupon, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for %s: %w", source, err)
	}
	defer gzipReader.Close()

	var coupons []model.Coupon
	scanner := bufio.NewScanner(gzipReader)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		c, err := parseCouponLine(line)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", source, lineNo, err)
		}
		coupons = append(coupons, *c)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading coupon file %s: %w", source, err)
	}

	return coupons, nil
}

func parseCouponLine(line string) (*model.Coupon, error) {
	fields := strings.Split(line, ",")
	if len(fields) != importFieldCount {
		return nil, fmt.Errorf("expected %d fields, got %d", importFieldCount, len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	code, err := NormalizeCode(fields[0])
	if err != nil {
		return nil, err
	}

	discountType := model.DiscountType(strings.ToLower(fields[1]))
	if discountType != model.DiscountTypeFixed && discountType != model.DiscountTypePercentage {
		return nil, fmt.Errorf("unknown discount type %q", fields[1])
	}

	value, err := decimal.NewFromString(fields[2])
	if err != nil || !value.IsPositive() {
		return nil, fmt.Errorf("invalid discount value %q", fields[2])
	}
	if discountType == model.DiscountTypePercentage && value.GreaterThan(hundred) {
		return nil, fmt.Errorf("percentage discount %s exceeds 100", value)
	}

	minOrder := decimal.Zero
	if fields[3] != "" {
		if minOrder, err = decimal.NewFromString(fields[3]); err != nil {
			return nil, fmt.Errorf("invalid min order value %q", fields[3])
		}
	}

	minItems := 0
	if fields[4] != "" {
		if minItems, err = strconv.Atoi(fields[4]); err != nil {
			return nil, fmt.Errorf("invalid min items %q", fields[4])
		}
	}

	c := &model.Coupon{
		Code:          code,
		DiscountType:  discountType,
		DiscountValue: value,
		MinOrderValue: minOrder,
		MinItems:      minItems,
		IsActive:      true,
	}

	if fields[5] != "" {
		maxUses, err := strconv.Atoi(fields[5])
		if err != nil || maxUses < 1 {
			return nil, fmt.Errorf("invalid max uses %q", fields[5])
		}
		c.MaxUses = &maxUses
	}

	if fields[6] != "" {
		day, err := time.Parse("2006-01-02", fields[6])
		if err != nil {
			return nil, fmt.Errorf("invalid valid_until %q", fields[6])
		}
		until := day.Add(24*time.Hour - time.Second)
		c.ValidUntil = &until
	}

	return c, nil
}
