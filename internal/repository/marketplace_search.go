package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/nft-bank-marketplace/internal/model"
)

// MarketplaceQuery defines filters, sort and pagination for the public
// listing.  Zero values mean "no filter"; Page and Limit must already be
// normalized by the caller.
type MarketplaceQuery struct {
	Page       int
	Limit      int
	SortBy     string // price | name | rarity | id
	SortOrder  string // asc | desc
	MinPrice   *float64
	MaxPrice   *float64
	Rarity     model.Rarity
	Search     string
	Collection model.CollectionKind
}

// MarketplaceRow is one listed NFT plus its owner's handle.
type MarketplaceRow struct {
	model.NFT
	OwnerUsername string
}

const rarityOrdinal = `CASE n.rarity
	WHEN 'common' THEN 1 WHEN 'uncommon' THEN 2 WHEN 'rare' THEN 3
	WHEN 'epic' THEN 4 WHEN 'legendary' THEN 5 ELSE 0 END`

// marketplaceWhere composes the predicate shared by the count and page
// queries.
func marketplaceWhere(q MarketplaceQuery) (string, []any) {
	where := []string{"n.for_sale = 1", "n.collection_kind IN ('A','B')"}
	args := []any{}

	if q.MinPrice != nil {
		where = append(where, "CAST(n.price AS DECIMAL(18,2)) >= ?")
		args = append(args, *q.MinPrice)
	}
	if q.MaxPrice != nil {
		where = append(where, "CAST(n.price AS DECIMAL(18,2)) <= ?")
		args = append(args, *q.MaxPrice)
	}
	if q.Rarity != "" {
		where = append(where, "n.rarity = ?")
		args = append(args, string(q.Rarity))
	}
	if q.Search != "" {
		like := "%" + strings.ToLower(q.Search) + "%"
		where = append(where, "(LOWER(n.name) LIKE ? OR LOWER(COALESCE(n.description, '')) LIKE ?)")
		args = append(args, like, like)
	}
	if q.Collection != model.KindNone {
		where = append(where, "n.collection_kind = ?")
		args = append(args, string(q.Collection))
	}
	return strings.Join(where, " AND "), args
}

// marketplaceOrder maps sortBy/sortOrder onto a fixed set of ORDER BY
// clauses.  Unknown keys fall back to id.  id ASC breaks ties so pages do
// not overlap.
func marketplaceOrder(sortBy, sortOrder string) string {
	dir := "ASC"
	if strings.EqualFold(sortOrder, "desc") {
		dir = "DESC"
	}
	switch strings.ToLower(sortBy) {
	case "price":
		return "CAST(n.price AS DECIMAL(18,2)) " + dir + ", n.id ASC"
	case "name":
		return "n.name " + dir + ", n.id ASC"
	case "rarity":
		return rarityOrdinal + " " + dir + ", n.id ASC"
	default:
		return "n.id " + dir
	}
}

// SearchMarketplace returns one page of listed NFTs and the total number
// of matches.
func (r *NFTRepo) SearchMarketplace(ctx context.Context, q MarketplaceQuery) ([]MarketplaceRow, int64, error) {
	cond, args := marketplaceWhere(q)

	var total int64
	countSQL := `SELECT COUNT(*) FROM nfts n WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.Limit
	offset := int64(max(q.Page, 1)-1) * int64(q.Limit)

	dataSQL := `SELECT ` + nftColumns + `, COALESCE(u.username, '')
		FROM nfts n
		LEFT JOIN users u ON u.id = n.owner_id
		WHERE ` + cond + `
		ORDER BY ` + marketplaceOrder(q.SortBy, q.SortOrder) + `
		LIMIT ? OFFSET ?`

	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]MarketplaceRow, 0, limit)
	for rows.Next() {
		var row MarketplaceRow
		n, err := scanNFT(rows, &row.OwnerUsername)
		if err != nil {
			return nil, 0, err
		}
		row.NFT = n
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
