package tmdb

// Genre is one TMDb genre entry.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ProductionCountry is one entry of a movie's production_countries list.
type ProductionCountry struct {
	ISO31661 string `json:"iso_3166_1"`
	Name     string `json:"name"`
}

// CastMember is one entry of a credits cast list.
type CastMember struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Character string `json:"character,omitempty"`
	Order     int    `json:"order"`
}

// CrewMember is one entry of a credits crew list.
type CrewMember struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department"`
}

// Credits is the append_to_response=credits payload.
type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// BelongsToCollection is the collection stub on a movie's details.
type BelongsToCollection struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MovieDetails is a movie with credits appended.
type MovieDetails struct {
	ID                  int                  `json:"id"`
	Title               string               `json:"title"`
	OriginalTitle       string               `json:"original_title"`
	OriginalLanguage    string               `json:"original_language"`
	ReleaseDate         string               `json:"release_date"`
	PosterPath          string               `json:"poster_path"`
	VoteAverage         float64              `json:"vote_average"`
	VoteCount           int                  `json:"vote_count"`
	Genres              []Genre              `json:"genres"`
	ProductionCountries []ProductionCountry  `json:"production_countries"`
	BelongsToCollection *BelongsToCollection `json:"belongs_to_collection"`
	ImdbID              string               `json:"imdb_id"`
	Status              string               `json:"status"`
	Credits             Credits              `json:"credits"`
}

// SeasonSummary is one entry of a series' seasons list.
type SeasonSummary struct {
	SeasonNumber int    `json:"season_number"`
	EpisodeCount int    `json:"episode_count"`
	AirDate      string `json:"air_date"`
	Name         string `json:"name"`
}

// Episode is one episode of a season's details.
type Episode struct {
	EpisodeNumber int    `json:"episode_number"`
	SeasonNumber  int    `json:"season_number"`
	Name          string `json:"name"`
	AirDate       string `json:"air_date"`
	Overview      string `json:"overview,omitempty"`
}

// Creator is one entry of a series' created_by list.
type Creator struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// SeasonDetails is the /tv/{id}/season/{n} payload.
type SeasonDetails struct {
	SeasonNumber int       `json:"season_number"`
	Name         string    `json:"name"`
	AirDate      string    `json:"air_date"`
	Episodes     []Episode `json:"episodes"`
}

// TVDetails is a series with credits appended.
type TVDetails struct {
	ID                 int                 `json:"id"`
	Name               string              `json:"name"`
	OriginalName       string              `json:"original_name"`
	OriginalLanguage   string              `json:"original_language"`
	FirstAirDate       string              `json:"first_air_date"`
	LastAirDate        string              `json:"last_air_date"`
	PosterPath         string              `json:"poster_path"`
	VoteAverage        float64             `json:"vote_average"`
	Status             string              `json:"status"`
	InProduction       bool                `json:"in_production"`
	NumberOfSeasons    int                 `json:"number_of_seasons"`
	NumberOfEpisodes   int                 `json:"number_of_episodes"`
	Genres             []Genre             `json:"genres"`
	CreatedBy          []Creator           `json:"created_by"`
	OriginCountry      []string            `json:"origin_country"`
	Seasons            []SeasonSummary     `json:"seasons"`
	NextEpisodeToAir   *Episode            `json:"next_episode_to_air"`
	ProductionCountries []ProductionCountry `json:"production_countries"`
	Credits            Credits             `json:"credits"`
}

// CollectionPart is one movie of a TMDb collection.
type CollectionPart struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
	PosterPath  string `json:"poster_path"`
	MediaType   string `json:"media_type"`
}

// CollectionDetails is the /collection/{id} payload.
type CollectionDetails struct {
	ID         int              `json:"id"`
	Name       string           `json:"name"`
	Overview   string           `json:"overview"`
	PosterPath string           `json:"poster_path"`
	Parts      []CollectionPart `json:"parts"`
}

// SearchResult is one entry of a search or find response.
type SearchResult struct {
	ID            int     `json:"id"`
	MediaType     string  `json:"media_type,omitempty"`
	Title         string  `json:"title,omitempty"`
	Name          string  `json:"name,omitempty"`
	OriginalTitle string  `json:"original_title,omitempty"`
	OriginalName  string  `json:"original_name,omitempty"`
	ReleaseDate   string  `json:"release_date,omitempty"`
	FirstAirDate  string  `json:"first_air_date,omitempty"`
	PosterPath    string  `json:"poster_path,omitempty"`
	VoteAverage   float64 `json:"vote_average,omitempty"`
	Popularity    float64 `json:"popularity,omitempty"`
}

// DisplayTitle returns the title for movies and the name for series.
func (r SearchResult) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// Date returns the release date for movies and the first air date for series.
func (r SearchResult) Date() string {
	if r.ReleaseDate != "" {
		return r.ReleaseDate
	}
	return r.FirstAirDate
}

type searchResponse struct {
	Page         int            `json:"page"`
	Results      []SearchResult `json:"results"`
	TotalResults int            `json:"total_results"`
}

type findResponse struct {
	MovieResults []SearchResult `json:"movie_results"`
	TVResults    []SearchResult `json:"tv_results"`
}

// PersonCredit is one entry of a person's combined credits.
type PersonCredit struct {
	ID            int     `json:"id"`
	MediaType     string  `json:"media_type"`
	Title         string  `json:"title,omitempty"`
	Name          string  `json:"name,omitempty"`
	Character     string  `json:"character,omitempty"`
	Job           string  `json:"job,omitempty"`
	ReleaseDate   string  `json:"release_date,omitempty"`
	FirstAirDate  string  `json:"first_air_date,omitempty"`
	PosterPath    string  `json:"poster_path,omitempty"`
	VoteAverage   float64 `json:"vote_average,omitempty"`
	VoteCount     int     `json:"vote_count,omitempty"`
	Popularity    float64 `json:"popularity,omitempty"`
	GenreIDs      []int   `json:"genre_ids,omitempty"`
	OriginCountry []string `json:"origin_country,omitempty"`
}

// DisplayTitle returns the title for movies and the name for series.
func (c PersonCredit) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return c.Name
}

// Date returns the release date for movies and the first air date for series.
func (c PersonCredit) Date() string {
	if c.ReleaseDate != "" {
		return c.ReleaseDate
	}
	return c.FirstAirDate
}

// CombinedCredits is the /person/{id}/combined_credits payload.
type CombinedCredits struct {
	Cast []PersonCredit `json:"cast"`
	Crew []PersonCredit `json:"crew"`
}

// PersonDetails is the /person/{id} payload.
type PersonDetails struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	ImdbID      string   `json:"imdb_id"`
	AlsoKnownAs []string `json:"also_known_as"`
	Popularity  float64  `json:"popularity"`
}
