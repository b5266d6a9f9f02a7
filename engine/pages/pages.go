// Package pages renders one MDX page per vehicle grouping: YAML front
// matter for the site generator plus an HTML-paragraph body. A page is
// created on first sight of its slug and merged on every next sight, so
// several VINs of the same configuration share one page.
package pages

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexsab-ru/carfeed/engine/domain"
	yaml "gopkg.in/yaml.v2"
)

const frontMatterDelim = "---\n"

// FrontMatter is the page header consumed by the site generator. Field
// order here is the order written to disk.
type FrontMatter struct {
	Order     int      `yaml:"order"`
	Total     int      `yaml:"total"`
	VINList   []string `yaml:"vin_list"`
	VINHidden []string `yaml:"vin_hidden"`

	H1          string `yaml:"h1"`
	Breadcrumb  string `yaml:"breadcrumb"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`

	MarkID            string `yaml:"mark_id"`
	FolderID          string `yaml:"folder_id"`
	ModificationID    string `yaml:"modification_id,omitempty"`
	ComplectationName string `yaml:"complectation_name,omitempty"`
	BodyType          string `yaml:"body_type,omitempty"`
	Wheel             string `yaml:"wheel,omitempty"`
	Color             string `yaml:"color,omitempty"`
	Year              string `yaml:"year,omitempty"`
	EngineType        string `yaml:"engineType,omitempty"`
	GearboxType       string `yaml:"gearboxType,omitempty"`
	DriveType         string `yaml:"drive_type,omitempty"`
	Availability      string `yaml:"availability,omitempty"`

	Price             int `yaml:"price"`
	MaxDiscount       int `yaml:"max_discount,omitempty"`
	PriceWithDiscount int `yaml:"priceWithDiscount"`
	SalePrice         int `yaml:"sale_price,omitempty"`
	Run               int `yaml:"run"`

	Images []string `yaml:"images,omitempty"`
	Thumbs []string `yaml:"thumbs,omitempty"`
	Image  string   `yaml:"image,omitempty"`
	URL    string   `yaml:"url,omitempty"`
}

// Emitter writes and merges the MDX page tree for one run.
type Emitter struct {
	// Dir is the page output directory, e.g. src/content/cars.
	Dir string
	// City and CityWhere feed the generated title and description
	// ("в Москве" / "г. Москва").
	City      string
	CityWhere string
	// SortOrder maps VIN to a display order; VINs not listed get DefaultOrder.
	SortOrder    map[string]int
	DefaultOrder int

	Thumbs Thumbnailer
	Log    *slog.Logger

	emitted map[string]bool
}

// EmitStats reports one run of the emitter.
type EmitStats struct {
	Created int
	Merged  int
	Pruned  int
}

// NewEmitter builds an Emitter writing under dir.
func NewEmitter(dir string, log *slog.Logger) *Emitter {
	return &Emitter{
		Dir:          dir,
		DefaultOrder: 1,
		Thumbs:       NopThumbnailer{},
		Log:          log,
		emitted:      make(map[string]bool),
	}
}

// Emit writes pages for all records, then prunes pages no record produced.
func (e *Emitter) Emit(records []*domain.Record) (EmitStats, error) {
	var stats EmitStats
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return stats, fmt.Errorf("pages: mkdir %s: %w", e.Dir, err)
	}
	for _, rec := range records {
		created, err := e.EmitOne(rec)
		if err != nil {
			return stats, err
		}
		if created {
			stats.Created++
		} else {
			stats.Merged++
		}
	}
	pruned, err := e.Prune()
	stats.Pruned = pruned
	return stats, err
}

// EmitOne writes or merges the page for one record. It reports whether the
// page was newly created.
func (e *Emitter) EmitOne(rec *domain.Record) (bool, error) {
	slug := rec.FriendlyURL
	if slug == "" {
		slug = domain.FriendlyURL(rec)
	}
	if slug == "" {
		return false, fmt.Errorf("pages: %s: %w", rec.VIN, domain.ErrEmptySlug)
	}
	path := filepath.Join(e.Dir, slug+".mdx")

	if e.emitted[path] {
		err := e.merge(path, rec)
		return false, err
	}
	e.emitted[path] = true
	// A page carried over from a previous run is rebuilt from scratch so
	// stale fields never survive.
	return true, e.create(path, slug, rec)
}

func (e *Emitter) create(path, slug string, rec *domain.Record) error {
	fm := e.frontMatter(rec, slug)
	body := RenderBody(rec.Description)
	data, err := yaml.Marshal(&fm)
	if err != nil {
		return fmt.Errorf("pages: marshal %s: %w", path, err)
	}
	content := frontMatterDelim + string(data) + frontMatterDelim + body
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("pages: write %s: %w", path, err)
	}
	if e.Log != nil {
		e.Log.Info("page created", "path", path, "vin", rec.VIN)
	}
	return nil
}

// merge folds another VIN of the same configuration into an existing page:
// totals sum, run and price take the minimum, images extend, thumbs top up.
func (e *Emitter) merge(path string, rec *domain.Record) error {
	fm, body, err := ReadPage(path)
	if err != nil {
		return err
	}

	fm.Total += rec.Total
	fm.VINList = appendUnique(fm.VINList, rec.VIN)
	fm.VINHidden = appendUnique(fm.VINHidden, rec.VINHidden())
	if rec.Run < fm.Run {
		fm.Run = rec.Run
	}
	if rec.SalePrice > 0 && (fm.PriceWithDiscount == 0 || rec.SalePrice < fm.PriceWithDiscount) {
		fm.PriceWithDiscount = rec.SalePrice
		fm.SalePrice = rec.SalePrice
	}
	for _, img := range rec.Images {
		fm.Images = appendUnique(fm.Images, img)
	}
	if len(fm.Thumbs) < maxThumbs {
		more, err := e.Thumbs.Thumbs(rec.Images, slugOf(path))
		if err != nil && e.Log != nil {
			e.Log.Warn("thumbnails failed", "path", path, "err", err)
		}
		for _, t := range more {
			if len(fm.Thumbs) >= maxThumbs {
				break
			}
			fm.Thumbs = appendUnique(fm.Thumbs, t)
		}
	}

	data, err := yaml.Marshal(fm)
	if err != nil {
		return fmt.Errorf("pages: marshal %s: %w", path, err)
	}
	content := frontMatterDelim + string(data) + frontMatterDelim + body
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("pages: write %s: %w", path, err)
	}
	if e.Log != nil {
		e.Log.Info("page merged", "path", path, "vin", rec.VIN, "total", fm.Total)
	}
	return nil
}

func (e *Emitter) frontMatter(rec *domain.Record, slug string) FrontMatter {
	order := e.DefaultOrder
	if o, ok := e.SortOrder[rec.VIN]; ok {
		order = o
	}
	thumbs, err := e.Thumbs.Thumbs(rec.Images, slug)
	if err != nil && e.Log != nil {
		e.Log.Warn("thumbnails failed", "vin", rec.VIN, "err", err)
	}
	image := ""
	if len(rec.Images) > 0 {
		image = rec.Images[0]
	}
	return FrontMatter{
		Order:             order,
		Total:             rec.Total,
		VINList:           []string{rec.VIN},
		VINHidden:         []string{rec.VINHidden()},
		H1:                rec.Join(domain.FieldMark, domain.FieldFolder, domain.FieldModification),
		Breadcrumb:        rec.Join(domain.FieldMark, domain.FieldFolder, domain.FieldComplectation),
		Title:             e.title(rec),
		Description:       e.description(rec),
		MarkID:            rec.MarkID,
		FolderID:          rec.FolderID,
		ModificationID:    rec.ModificationID,
		ComplectationName: rec.ComplectationName,
		BodyType:          rec.BodyType,
		Wheel:             rec.Wheel,
		Color:             rec.Color,
		Year:              rec.Year,
		EngineType:        rec.EngineType,
		GearboxType:       rec.GearboxType,
		DriveType:         rec.DriveType,
		Availability:      rec.Availability,
		Price:             rec.Price,
		MaxDiscount:       rec.MaxDiscount,
		PriceWithDiscount: rec.SalePrice,
		SalePrice:         rec.SalePrice,
		Run:               rec.Run,
		Images:            rec.Images,
		Thumbs:            thumbs,
		Image:             image,
		URL:               rec.URL,
	}
}

func (e *Emitter) title(rec *domain.Record) string {
	name := rec.Join(domain.FieldMark, domain.FieldFolder, domain.FieldModification, domain.FieldColor)
	if e.CityWhere == "" {
		return fmt.Sprintf("Купить %s у официального дилера", name)
	}
	return fmt.Sprintf("Купить %s у официального дилера в %s", name, e.CityWhere)
}

func (e *Emitter) description(rec *domain.Record) string {
	name := rec.Join(domain.FieldMark, domain.FieldFolder)
	var b strings.Builder
	fmt.Fprintf(&b, "Купить автомобиль %s", name)
	if rec.Year != "" {
		fmt.Fprintf(&b, " %s года выпуска", rec.Year)
	}
	if rec.ComplectationName != "" {
		fmt.Fprintf(&b, ", комплектация %s", rec.ComplectationName)
	}
	if rec.Color != "" {
		fmt.Fprintf(&b, ", цвет - %s", rec.Color)
	}
	if rec.ModificationID != "" {
		fmt.Fprintf(&b, ", двигатель - %s", rec.ModificationID)
	}
	if e.City != "" {
		fmt.Fprintf(&b, " у официального дилера в г. %s", e.City)
	}
	price := rec.SalePrice
	if price == 0 {
		price = rec.Price
	}
	fmt.Fprintf(&b, ". Стоимость данного автомобиля %s – %d", name, price)
	return b.String()
}

// Prune deletes .mdx files under Dir that this run did not emit. Returns
// the number of files removed.
func (e *Emitter) Prune() (int, error) {
	entries, err := os.ReadDir(e.Dir)
	if err != nil {
		return 0, fmt.Errorf("pages: read dir %s: %w", e.Dir, err)
	}
	pruned := 0
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".mdx") {
			continue
		}
		path := filepath.Join(e.Dir, ent.Name())
		if e.emitted[path] {
			continue
		}
		if err := os.Remove(path); err != nil {
			return pruned, fmt.Errorf("pages: prune %s: %w", path, err)
		}
		pruned++
		if e.Log != nil {
			e.Log.Info("page pruned", "path", path)
		}
	}
	return pruned, nil
}

// ReadPage splits an MDX file into parsed front matter and raw body.
func ReadPage(path string) (*FrontMatter, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("pages: read %s: %w", path, err)
	}
	parts := strings.SplitN(string(data), frontMatterDelim, 3)
	if len(parts) < 3 {
		return nil, "", fmt.Errorf("pages: %s: no front matter block", path)
	}
	var fm FrontMatter
	if err := yaml.Unmarshal([]byte(parts[1]), &fm); err != nil {
		return nil, "", fmt.Errorf("pages: parse %s: %w", path, err)
	}
	return &fm, parts[2], nil
}

// RenderBody wraps description lines in paragraph tags; blank lines become
// non-breaking spacers.
func RenderBody(description string) string {
	if strings.TrimSpace(description) == "" {
		return ""
	}
	lines := strings.Split(description, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			out = append(out, "<p>&nbsp;</p>")
			continue
		}
		out = append(out, "<p>"+line+"</p>")
	}
	return strings.Join(out, "\n") + "\n"
}

func appendUnique(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, have := range list {
		if have == v {
			return list
		}
	}
	return append(list, v)
}

func slugOf(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".mdx")
}
