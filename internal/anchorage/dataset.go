package anchorage

import "github.com/denizrota/denizrota/internal/geo"

// bundledCoves covers the Aegean and Mediterranean coast from Bodrum to
// Kaş. Positions are at the anchoring spot, not the shore.
var bundledCoves = []Cove{
	// Datça, south shore
	{ID: "knidos", Name: "Knidos", Region: "Datça", Coordinate: geo.Coordinate{Lat: 36.6860, Lon: 27.3780}, MouthDirection: 135},
	{ID: "palamutbuku", Name: "Palamutbükü", Region: "Datça", Coordinate: geo.Coordinate{Lat: 36.6690, Lon: 27.5030}, MouthDirection: 180},
	{ID: "mesudiye", Name: "Mesudiye (Ova Bükü)", Region: "Datça", Coordinate: geo.Coordinate{Lat: 36.6800, Lon: 27.5640}, MouthDirection: 190},
	{ID: "hayitbuku", Name: "Hayıtbükü", Region: "Datça", Coordinate: geo.Coordinate{Lat: 36.6830, Lon: 27.5850}, MouthDirection: 160},
	{ID: "kargi-datca", Name: "Kargı Koyu", Region: "Datça", Coordinate: geo.Coordinate{Lat: 36.7200, Lon: 27.6930}, MouthDirection: 200},

	// Datça, Gökova shore
	{ID: "kurucabuk", Name: "Kuruca Bükü", Region: "Gökova", Coordinate: geo.Coordinate{Lat: 36.7720, Lon: 27.6080}, MouthDirection: 0},
	{ID: "degirmenbuku", Name: "Değirmenbükü", Region: "Gökova", Coordinate: geo.Coordinate{Lat: 36.7760, Lon: 27.6440}, MouthDirection: 20},
	{ID: "bencik", Name: "Bencik", Region: "Hisarönü", Coordinate: geo.Coordinate{Lat: 36.7730, Lon: 28.0380}, MouthDirection: 250},

	// Gökova, north and east shore
	{ID: "cokertme", Name: "Çökertme", Region: "Gökova", Coordinate: geo.Coordinate{Lat: 37.0010, Lon: 27.8050}, MouthDirection: 180},
	{ID: "sedir", Name: "Sedir Adası", Region: "Gökova", Coordinate: geo.Coordinate{Lat: 36.9930, Lon: 28.2010}, MouthDirection: 270},
	{ID: "longoz", Name: "Longöz", Region: "Gökova", Coordinate: geo.Coordinate{Lat: 36.9650, Lon: 28.1230}, MouthDirection: 225},
	{ID: "yedi-adalar", Name: "Yedi Adalar", Region: "Gökova", Coordinate: geo.Coordinate{Lat: 36.8950, Lon: 28.0950}, MouthDirection: 315},

	// Bodrum
	{ID: "aspat", Name: "Aspat", Region: "Bodrum", Coordinate: geo.Coordinate{Lat: 37.0040, Lon: 27.3260}, MouthDirection: 200},
	{ID: "kargi-bodrum", Name: "Kargı (Bodrum)", Region: "Bodrum", Coordinate: geo.Coordinate{Lat: 37.0160, Lon: 27.3890}, MouthDirection: 170},

	// Marmaris and Hisarönü
	{ID: "kumlubuk", Name: "Kumlubük", Region: "Marmaris", Coordinate: geo.Coordinate{Lat: 36.7740, Lon: 28.1820}, MouthDirection: 180},
	{ID: "ciftlik", Name: "Çiftlik", Region: "Marmaris", Coordinate: geo.Coordinate{Lat: 36.7160, Lon: 28.2380}, MouthDirection: 200},
	{ID: "ekincik", Name: "Ekincik", Region: "Marmaris", Coordinate: geo.Coordinate{Lat: 36.8260, Lon: 28.5460}, MouthDirection: 225},
	{ID: "bozburun", Name: "Bozburun", Region: "Hisarönü", Coordinate: geo.Coordinate{Lat: 36.6800, Lon: 28.0420}, MouthDirection: 270},

	// Fethiye and Göcek
	{ID: "kuyucak", Name: "Kuyucak", Region: "Göcek", Coordinate: geo.Coordinate{Lat: 36.7020, Lon: 28.8820}, MouthDirection: 180},
	{ID: "tersane", Name: "Tersane Adası", Region: "Göcek", Coordinate: geo.Coordinate{Lat: 36.6740, Lon: 28.9110}, MouthDirection: 330},
	{ID: "gemiler", Name: "Gemiler Adası", Region: "Fethiye", Coordinate: geo.Coordinate{Lat: 36.5540, Lon: 29.0640}, MouthDirection: 225},

	// Kaş and Kekova
	{ID: "limanagzi", Name: "Limanağzı", Region: "Kaş", Coordinate: geo.Coordinate{Lat: 36.1920, Lon: 29.6380}, MouthDirection: 0},
	{ID: "kekova", Name: "Kekova (Üçağız)", Region: "Kaş", Coordinate: geo.Coordinate{Lat: 36.1900, Lon: 29.8480}, MouthDirection: 200},
}

// BundledCoves returns a copy of the bundled cove list.
func BundledCoves() []Cove {
	out := make([]Cove, len(bundledCoves))
	copy(out, bundledCoves)
	return out
}
