package catalog

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/iliyamo/nft-bank-marketplace/internal/model"
)

// rarityBands are the [lo, hi) fractions of the size-sorted image list
// each tier draws from.  Legendary takes everything from its lower bound.
var rarityBands = map[model.Rarity][2]float64{
	model.RarityCommon:    {0, 0.4},
	model.RarityUncommon:  {0.4, 0.7},
	model.RarityRare:      {0.7, 0.9},
	model.RarityEpic:      {0.9, 0.98},
	model.RarityLegendary: {0.98, 1},
}

var imageExts = map[string]bool{".png": true, ".avif": true, ".svg": true}

// ImagePicker chooses artwork for newly minted NFTs from the asset
// directories.  Larger files are assumed to be more detailed and go to
// the higher tiers.
type ImagePicker struct {
	FS             fs.FS
	Dirs           map[model.CollectionKind]string
	FallbackPrefix string
	Gen            Generator
}

type imageFile struct {
	name string
	size int64
}

// Pick returns the public path of an image for a new NFT of rarity r in
// collection kind.  used holds image paths already assigned to NFTs.
// When no artwork is available the rarity fallback image is returned.
func (p ImagePicker) Pick(r model.Rarity, kind model.CollectionKind, used map[string]struct{}) string {
	dir := p.Dirs[kind]
	if dir == "" {
		dir = p.Dirs[model.KindA]
	}
	files, err := p.list(dir)
	if err != nil || len(files) == 0 {
		return p.Fallback(r)
	}

	band := bandOf(files, r)
	free := make([]imageFile, 0, len(band))
	for _, f := range band {
		if _, taken := used[imagePath(dir, f.name)]; !taken {
			free = append(free, f)
		}
	}
	if len(free) == 0 {
		free = band
	}
	return imagePath(dir, free[p.Gen.intN(len(free))].name)
}

// Fallback is the static placeholder for a tier.
func (p ImagePicker) Fallback(r model.Rarity) string {
	prefix := strings.TrimRight(p.FallbackPrefix, "/")
	if prefix == "" {
		prefix = "/public/assets/nft/fallback"
	}
	return fmt.Sprintf("%s/%s_nft.png", prefix, r)
}

func (p ImagePicker) list(dir string) ([]imageFile, error) {
	if p.FS == nil {
		return nil, fs.ErrNotExist
	}
	entries, err := fs.ReadDir(p.FS, dir)
	if err != nil {
		return nil, err
	}
	var files []imageFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !imageExts[strings.ToLower(path.Ext(name))] || strings.Contains(strings.ToLower(name), "fallback") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, imageFile{name: name, size: info.Size()})
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].size != files[j].size {
			return files[i].size < files[j].size
		}
		return files[i].name < files[j].name
	})
	return files, nil
}

func bandOf(files []imageFile, r model.Rarity) []imageFile {
	b, ok := rarityBands[r]
	if !ok {
		return files
	}
	n := float64(len(files))
	lo, hi := int(n*b[0]), int(n*b[1])
	if r == model.RarityLegendary {
		hi = len(files)
	}
	if lo >= hi {
		return files
	}
	return files[lo:hi]
}

func imagePath(dir, name string) string {
	return "/" + path.Join(dir, name)
}
