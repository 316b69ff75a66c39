package search

import (
	"math"
	"sort"

	"PropertySearchSys/models"
)

// ClusterConfig tunes the zoom-to-grid mapping and the member id sample.
type ClusterConfig struct {
	// BaseCellDeg is the grid cell size in degrees at zoom 0; each zoom step
	// halves it, down to MinCellDeg.
	BaseCellDeg float64
	MinCellDeg  float64
	// MaxSampleIDs bounds PropertyIDs per cluster; the sample is the first
	// ids in ascending id order, so it is deterministic for a given input.
	MaxSampleIDs int
}

func (c ClusterConfig) cellSize(zoom int) float64 {
	if zoom < 0 {
		zoom = 0
	}
	size := c.BaseCellDeg / math.Exp2(float64(zoom))
	if size < c.MinCellDeg {
		size = c.MinCellDeg
	}
	return size
}

type clusterCell struct {
	x, y     int
	sumLat   float64
	sumLng   float64
	count    int
	minPrice float64
	maxPrice float64
	sumPrice float64
	ids      []string
}

// ClusterProperties partitions the viewport into a grid whose cell size
// shrinks as zoom grows and aggregates the given properties per populated
// cell. Output is fully deterministic for a fixed input set: members are
// visited in id order and cells are emitted row-major from the south-west
// corner, so identical requests render identical pins.
func ClusterProperties(props []models.Property, bounds models.MapBounds, zoom int, cfg ClusterConfig) []models.PropertyCluster {
	if len(props) == 0 {
		return []models.PropertyCluster{}
	}

	sorted := make([]models.Property, len(props))
	copy(sorted, props)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID.Hex() < sorted[j].ID.Hex()
	})

	size := cfg.cellSize(zoom)
	cells := make(map[[2]int]*clusterCell)
	for _, p := range sorted {
		lat, lng := p.Location.Geo.Lat(), p.Location.Geo.Lng()
		x := int(math.Floor((lng - bounds.West) / size))
		y := int(math.Floor((lat - bounds.South) / size))

		cell, ok := cells[[2]int{x, y}]
		if !ok {
			cell = &clusterCell{x: x, y: y, minPrice: p.Price.Amount, maxPrice: p.Price.Amount}
			cells[[2]int{x, y}] = cell
		}
		cell.sumLat += lat
		cell.sumLng += lng
		cell.count++
		cell.sumPrice += p.Price.Amount
		if p.Price.Amount < cell.minPrice {
			cell.minPrice = p.Price.Amount
		}
		if p.Price.Amount > cell.maxPrice {
			cell.maxPrice = p.Price.Amount
		}
		if cfg.MaxSampleIDs <= 0 || len(cell.ids) < cfg.MaxSampleIDs {
			cell.ids = append(cell.ids, p.ID.Hex())
		}
	}

	ordered := make([]*clusterCell, 0, len(cells))
	for _, cell := range cells {
		ordered = append(ordered, cell)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].y != ordered[j].y {
			return ordered[i].y < ordered[j].y
		}
		return ordered[i].x < ordered[j].x
	})

	clusters := make([]models.PropertyCluster, 0, len(ordered))
	for _, cell := range ordered {
		n := float64(cell.count)
		clusters = append(clusters, models.PropertyCluster{
			Lat:         cell.sumLat / n,
			Lng:         cell.sumLng / n,
			Count:       cell.count,
			MinPrice:    cell.minPrice,
			AvgPrice:    cell.sumPrice / n,
			MaxPrice:    cell.maxPrice,
			PropertyIDs: cell.ids,
		})
	}
	return clusters
}
