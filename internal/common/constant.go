package common

// AuthorizationHeaderName is the HTTP header carrying the bearer token.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the only accepted authorization scheme.
const BearerScheme = "Bearer"

// MaxImagesPerRequest bounds the number of files accepted by a single
// create or update request.
const MaxImagesPerRequest = 10

// PublicImagePrefix is the URL prefix under which processed car images are
// served.
const PublicImagePrefix = "/uploads/cars/"
