package coastal

import "github.com/denizrota/denizrota/internal/geo"

// Hand-curated for the Bodrum to Kaş cruising grounds.

var seaRegions = []Region{
	{Name: "Gökova Körfezi", Box: geo.BoundingBox{MinLat: 36.85, MaxLat: 37.05, MinLon: 27.25, MaxLon: 28.35}},
	{Name: "Hisarönü Körfezi", Box: geo.BoundingBox{MinLat: 36.72, MaxLat: 36.85, MinLon: 27.65, MaxLon: 28.15}},
	{Name: "Datça - Simi", Box: geo.BoundingBox{MinLat: 36.50, MaxLat: 36.72, MinLon: 27.35, MaxLon: 28.20}},
	{Name: "Bodrum - Kos", Box: geo.BoundingBox{MinLat: 36.85, MaxLat: 37.10, MinLon: 27.00, MaxLon: 27.45}},
	{Name: "Marmaris - Rodos", Box: geo.BoundingBox{MinLat: 36.30, MaxLat: 36.85, MinLon: 28.00, MaxLon: 28.60}},
	{Name: "Fethiye - Göcek", Box: geo.BoundingBox{MinLat: 36.55, MaxLat: 36.80, MinLon: 28.80, MaxLon: 29.20}},
	{Name: "Kaş - Kekova", Box: geo.BoundingBox{MinLat: 36.10, MaxLat: 36.25, MinLon: 29.55, MaxLon: 30.00}},
}

var landExclusions = []Region{
	{Name: "Datça Yarımadası", Box: geo.BoundingBox{MinLat: 36.71, MaxLat: 36.80, MinLon: 27.40, MaxLon: 27.75}},
	{Name: "Datça Yarımadası doğu", Box: geo.BoundingBox{MinLat: 36.735, MaxLat: 36.77, MinLon: 27.75, MaxLon: 28.00}},
	{Name: "Simi", Box: geo.BoundingBox{MinLat: 36.55, MaxLat: 36.62, MinLon: 27.78, MaxLon: 27.87}},
	{Name: "Rodos kuzey", Box: geo.BoundingBox{MinLat: 36.20, MaxLat: 36.44, MinLon: 27.90, MaxLon: 28.22}},
	{Name: "Kos", Box: geo.BoundingBox{MinLat: 36.74, MaxLat: 36.90, MinLon: 26.95, MaxLon: 27.33}},
	{Name: "Bodrum Yarımadası", Box: geo.BoundingBox{MinLat: 37.02, MaxLat: 37.10, MinLon: 27.22, MaxLon: 27.48}},
	{Name: "Bozburun Yarımadası", Box: geo.BoundingBox{MinLat: 36.66, MaxLat: 36.75, MinLon: 28.03, MaxLon: 28.12}},
}

var coastline = []geo.Coordinate{
	// Gökova north shore
	{Lat: 37.035, Lon: 27.430}, // Bodrum
	{Lat: 37.040, Lon: 27.600},
	{Lat: 37.050, Lon: 27.800},
	{Lat: 37.050, Lon: 27.900}, // Ören
	{Lat: 37.045, Lon: 28.000},
	{Lat: 37.030, Lon: 28.200}, // Akyaka
	// Gökova south shore
	{Lat: 36.890, Lon: 28.250}, // Sedir adası
	{Lat: 36.860, Lon: 28.050}, // Değirmenbükü
	{Lat: 36.830, Lon: 27.850}, // Mersincik
	{Lat: 36.790, Lon: 27.620},
	{Lat: 36.760, Lon: 27.450}, // Knidos
	// Datça south shore
	{Lat: 36.724, Lon: 27.690}, // Datça
	{Lat: 36.728, Lon: 27.880}, // Palamutbükü
	{Lat: 36.735, Lon: 27.990},
	// Hisarönü
	{Lat: 36.780, Lon: 28.040}, // Selimiye
	{Lat: 36.800, Lon: 28.100}, // Orhaniye
	// Simi and islets
	{Lat: 36.628, Lon: 27.905}, // Simi north-east headland
	{Lat: 36.615, Lon: 27.870},
	{Lat: 36.580, Lon: 27.860},
	{Lat: 36.560, Lon: 27.820},
	// Bozburun
	{Lat: 36.680, Lon: 28.040},
	{Lat: 36.640, Lon: 28.060},
	// Marmaris
	{Lat: 36.850, Lon: 28.270},
	{Lat: 36.800, Lon: 28.300}, // Turunç
	{Lat: 36.760, Lon: 28.240}, // Kumlubük
	// Rhodes north coast
	{Lat: 36.450, Lon: 28.220}, // Rodos
	{Lat: 36.440, Lon: 28.050},
	// Fethiye and Göcek
	{Lat: 36.760, Lon: 28.930}, // Göcek
	{Lat: 36.720, Lon: 28.880}, // Boynuz bükü
	{Lat: 36.660, Lon: 29.060}, // Fethiye
	{Lat: 36.620, Lon: 29.100}, // Ölüdeniz
	// Kaş and Kekova
	{Lat: 36.200, Lon: 29.640}, // Kaş
	{Lat: 36.180, Lon: 29.600}, // Meis
	{Lat: 36.190, Lon: 29.860}, // Kekova
}
