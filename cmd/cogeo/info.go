package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/airbusgeo/cogeo"
	"github.com/spf13/cobra"
)

func newInfoCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "info DATASET",
		Short: "describe a GeoTIFF and its cloud optimized layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := cogeo.Info(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				buf, err := json.MarshalIndent(rec, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(buf))
				return nil
			}
			printInfo(rec)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func printInfo(rec *cogeo.InfoRecord) {
	fmt.Printf("Driver: %s\n", rec.Driver)
	fmt.Printf("File: %s\n", rec.Path)
	fmt.Printf("COG: %v\n", rec.COG)
	if rec.Compression != "" {
		fmt.Printf("Compression: %s\n", rec.Compression)
	}
	if rec.ColorSpace != "" {
		fmt.Printf("ColorSpace: %s\n", rec.ColorSpace)
	}
	for _, e := range rec.Errors {
		fmt.Printf("COG error: %s\n", e)
	}
	for _, w := range rec.Warnings {
		fmt.Printf("COG warning: %s\n", w)
	}

	fmt.Println("\nProfile")
	fmt.Printf("    Width:          %d\n", rec.Profile.Width)
	fmt.Printf("    Height:         %d\n", rec.Profile.Height)
	fmt.Printf("    Bands:          %d\n", rec.Profile.Bands)
	fmt.Printf("    Tiled:          %v\n", rec.Profile.Tiled)
	fmt.Printf("    Dtype:          %s\n", rec.Profile.Dtype)
	fmt.Printf("    Interleave:     %s\n", rec.Profile.Interleave)
	fmt.Printf("    Alpha Band:     %v\n", rec.Profile.AlphaBand)
	fmt.Printf("    Internal Mask:  %v\n", rec.Profile.InternalMask)
	if rec.Profile.Nodata != nil {
		fmt.Printf("    Nodata:         %g\n", *rec.Profile.Nodata)
	}
	fmt.Printf("    ColorInterp:    %s\n", strings.Join(rec.Profile.ColorInterp, ","))
	fmt.Printf("    ColorMap:       %v\n", rec.Profile.ColorMap)

	fmt.Println("\nGeo")
	fmt.Printf("    Crs:            %s\n", rec.Geo.CRS)
	fmt.Printf("    Origin:         (%g, %g)\n", rec.Geo.Origin[0], rec.Geo.Origin[1])
	fmt.Printf("    Resolution:     (%g, %g)\n", rec.Geo.Resolution[0], rec.Geo.Resolution[1])
	fmt.Printf("    BoundingBox:    (%g, %g, %g, %g)\n",
		rec.Geo.BoundingBox[0], rec.Geo.BoundingBox[1], rec.Geo.BoundingBox[2], rec.Geo.BoundingBox[3])
	fmt.Printf("    MinZoom:        %d\n", rec.Geo.MinZoom)
	fmt.Printf("    MaxZoom:        %d\n", rec.Geo.MaxZoom)

	fmt.Println("\nIFD")
	fmt.Println("    Id      Size           BlockSize     Decimation")
	for _, ifd := range rec.IFDs {
		fmt.Printf("    %-7d %-14s %-13s %d\n",
			ifd.Level,
			fmt.Sprintf("%dx%d", ifd.Width, ifd.Height),
			fmt.Sprintf("%dx%d", ifd.Blocksize[0], ifd.Blocksize[1]),
			ifd.Decimation)
	}
}
