package app

import (
	"errors"
	"flag"
	"strings"
)

const (
	ImagePNG  = "png"
	ImageJPEG = "jpeg"
)

type ImageFormat string

type Config struct {
	DBPath     string
	Serial     string
	OutputFile string
	Format     ImageFormat
	Width      int
}

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

func NewConfig() *Config {
	return &Config{
		Format: ImagePNG,
		Width:  1200,
	}
}

func NewConfigFromCLI() (*Config, error) {
	c := NewConfig()

	var imageFormat string
	flag.StringVar(&c.DBPath, "db", "", "Path to the database file")
	flag.StringVar(&c.Serial, "serial", "", "Drone serial to render")
	flag.StringVar(&c.OutputFile, "o", "", "Path to the output file")
	flag.StringVar(&imageFormat, "f", string(ImagePNG), "Output image format. [png, jpeg]")
	flag.IntVar(&c.Width, "width", c.Width, "Output image width in pixels")
	flag.Parse()

	c.Format = ImageFormat(strings.ToLower(imageFormat))

	if c.DBPath == "" {
		return nil, errors.New("no database file provided")
	}
	if c.Serial == "" {
		return nil, errors.New("no drone serial provided")
	}
	if c.OutputFile == "" {
		return nil, errors.New("no output file provided")
	}
	if _, ok := validImageFormats[c.Format]; !ok {
		return nil, errors.New("invalid image format: " + string(c.Format))
	}
	if c.Width < 200 {
		return nil, errors.New("width must be at least 200 pixels")
	}

	return c, nil
}
