package emby

// Library is one virtual folder / view on the server.
type Library struct {
	ID             string `json:"Id"`
	Name           string `json:"Name"`
	CollectionType string `json:"CollectionType"`
}

// NameID is the {Name, Id} pair Emby uses for studios and similar lists.
type NameID struct {
	Name string `json:"Name"`
	ID   string `json:"Id"`
}

// Person is one entry of an item's People list.
type Person struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
	Type string `json:"Type"`
	Role string `json:"Role,omitempty"`
}

// Item is the subset of the server's BaseItemDto this system consumes.
type Item struct {
	ID                  string            `json:"Id"`
	Name                string            `json:"Name"`
	OriginalTitle       string            `json:"OriginalTitle,omitempty"`
	Type                string            `json:"Type"`
	ProviderIds         map[string]string `json:"ProviderIds,omitempty"`
	ProductionYear      int               `json:"ProductionYear,omitempty"`
	PremiereDate        string            `json:"PremiereDate,omitempty"`
	DateCreated         string            `json:"DateCreated,omitempty"`
	DateModified        string            `json:"DateModified,omitempty"`
	CommunityRating     float64           `json:"CommunityRating,omitempty"`
	Genres              []string          `json:"Genres,omitempty"`
	Tags                []string          `json:"Tags,omitempty"`
	Studios             []NameID          `json:"Studios,omitempty"`
	People              []Person          `json:"People,omitempty"`
	ProductionLocations []string          `json:"ProductionLocations,omitempty"`
	Status              string            `json:"Status,omitempty"`
	ParentID            string            `json:"ParentId,omitempty"`
	IndexNumber         int               `json:"IndexNumber,omitempty"`
	ParentIndexNumber   int               `json:"ParentIndexNumber,omitempty"`
}

// TmdbID returns the item's TMDb provider id, empty when absent.
func (i Item) TmdbID() string {
	for key, value := range i.ProviderIds {
		if key == "Tmdb" || key == "tmdb" {
			return value
		}
	}
	return ""
}

// ImdbID returns the item's IMDb provider id, empty when absent.
func (i Item) ImdbID() string {
	for key, value := range i.ProviderIds {
		if key == "Imdb" || key == "imdb" {
			return value
		}
	}
	return ""
}

// itemsResponse is the standard paged envelope of the Items endpoints.
type itemsResponse struct {
	Items            []Item `json:"Items"`
	TotalRecordCount int    `json:"TotalRecordCount"`
}

// ItemsRequest carries the query parameters of the Items endpoints. Encoded
// with go-querystring, so zero values are omitted.
type ItemsRequest struct {
	ParentID         string `url:"ParentId,omitempty"`
	IncludeItemTypes string `url:"IncludeItemTypes,omitempty"`
	Fields           string `url:"Fields,omitempty"`
	Recursive        bool   `url:"Recursive,omitempty"`
	StartIndex       int    `url:"StartIndex,omitempty"`
	Limit            int    `url:"Limit,omitempty"`
	AnyProviderIDs   string `url:"AnyProviderIdEquals,omitempty"`
	SearchTerm       string `url:"SearchTerm,omitempty"`
	NameStartsWith   string `url:"NameStartsWith,omitempty"`
	EnableTotalCount bool   `url:"EnableTotalRecordCount,omitempty"`
}

// IndexFields is the field list the library indexer requests.
const IndexFields = "ProviderIds,Type,DateCreated,Name,ProductionYear,OriginalTitle,PremiereDate,CommunityRating,Genres,Studios,ProductionLocations,People,Tags,DateModified"
