package model

import (
	"fmt"
	"strconv"
	"strings"
)

// CRS identifies a coordinate reference system.
// Definition is anything GDAL accepts as user input (EPSG:xxxx, WKT, PROJ string).
type CRS struct {
	Definition string
	EPSG       int // 0 when unknown
}

// Common reference systems
var (
	WGS84       = CRSFromEPSG(4326)
	WebMercator = CRSFromEPSG(3857)
)

// CRSFromEPSG builds a CRS from an EPSG code
func CRSFromEPSG(code int) CRS {
	return CRS{Definition: fmt.Sprintf("EPSG:%d", code), EPSG: code}
}

// ParseCRS parses a user supplied definition. EPSG codes are recognised in the
// forms "EPSG:28992", "epsg:28992", "28992" and "urn:ogc:def:crs:EPSG::28992".
func ParseCRS(def string) CRS {
	def = strings.TrimSpace(def)
	if def == "" {
		return CRS{}
	}

	candidate := def
	if idx := strings.LastIndex(candidate, ":"); idx >= 0 {
		upper := strings.ToUpper(candidate)
		if strings.HasPrefix(upper, "EPSG:") || strings.HasPrefix(upper, "URN:OGC:DEF:CRS:EPSG:") {
			candidate = candidate[idx+1:]
		}
	}

	if code, err := strconv.Atoi(candidate); err == nil && code > 0 {
		return CRSFromEPSG(code)
	}

	if strings.EqualFold(def, "CRS84") || strings.HasSuffix(strings.ToUpper(def), "OGC:1.3:CRS84") {
		return WGS84
	}

	return CRS{Definition: def}
}

// IsZero reports whether the CRS is unset
func (c CRS) IsZero() bool {
	return c.Definition == "" && c.EPSG == 0
}

// Equal compares two reference systems. EPSG codes win when both are known.
func (c CRS) Equal(other CRS) bool {
	if c.EPSG != 0 && other.EPSG != 0 {
		return c.EPSG == other.EPSG
	}
	return normalizeDefinition(c.Definition) == normalizeDefinition(other.Definition)
}

// IsGeographic reports whether the CRS is known to use degrees
func (c CRS) IsGeographic() bool {
	return c.EPSG == 4326 || c.EPSG == 4258 || c.EPSG == 4269
}

func (c CRS) String() string {
	if c.Definition != "" {
		return c.Definition
	}
	if c.EPSG != 0 {
		return fmt.Sprintf("EPSG:%d", c.EPSG)
	}
	return "<unknown>"
}

func normalizeDefinition(def string) string {
	return strings.ToUpper(strings.Join(strings.Fields(def), " "))
}
