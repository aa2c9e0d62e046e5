// Package raster converts rendered documents to PNG in-process using
// github.com/srwiley/oksvg and github.com/srwiley/rasterx.
package raster
