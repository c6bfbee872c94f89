package sqlstore

// Queries use ? placeholders; the store rebinds them for the open driver.

const reviewColumns = `
SELECT
  r.id,
  r.tour_id,
  r.account_id,
  r.rating,
  r.text,
  r.created,
  r.edited,
  a.username                 AS author_username,
  (a.agency_id IS NOT NULL)  AS author_is_agency,
  t.name                     AS tour_name,
  t.agency_id
FROM reviews r
JOIN accounts a ON a.id = r.account_id
JOIN tours t    ON t.id = r.tour_id
`

const reviewsOrder = ` ORDER BY r.created, r.id`

const reviewsForTourSQL = reviewColumns + `WHERE r.tour_id = ?` + reviewsOrder

const reviewsForAgencySQL = reviewColumns + `WHERE t.agency_id = ?` + reviewsOrder

const reviewsByAccountSQL = reviewColumns + `WHERE r.account_id = ?` + reviewsOrder

const insertReviewSQL = `
INSERT INTO reviews (id, tour_id, account_id, rating, text, created, edited)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

const updateReviewSQL = `UPDATE reviews SET rating = ?, text = ?, edited = ? WHERE id = ?`

const deleteReviewSQL = `DELETE FROM reviews WHERE id = ?`

// -----------------------------------------------------------------------------
// CATALOG
// -----------------------------------------------------------------------------

const tourColumns = `
SELECT t.id, t.name, t.description, t.agency_id, t.starting_city_id, t.price
FROM tours t
`

// a tour is in a country when one of its addresses is
const tourInCountrySQL = `EXISTS (
  SELECT 1 FROM tour_addresses ta
  JOIN addresses ad ON ad.id = ta.address_id
  JOIN cities c     ON c.id = ad.city_id
  WHERE ta.tour_id = t.id AND c.country_id = ?)`

const getTourSQL = tourColumns + `WHERE t.id = ?`

const getCitySQL = `SELECT id, name, country_id FROM cities WHERE id = ?`

const tourAddressesSQL = `SELECT address_id FROM tour_addresses WHERE tour_id = ? ORDER BY address_id`

const agencyColumns = `
SELECT g.id, g.name, g.phone_number, g.address_id, a.id AS account_id
FROM agencies g
JOIN addresses ad     ON ad.id = g.address_id
LEFT JOIN accounts a  ON a.agency_id = g.id
`

const upsertCountriesMySQL = " ON DUPLICATE KEY UPDATE name = VALUES(name)"

const upsertCountriesPostgres = " ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name"

// -----------------------------------------------------------------------------
// ACCOUNTS
// -----------------------------------------------------------------------------

const accountColumns = `SELECT id, username, is_staff, agency_id FROM accounts `

const getAccountSQL = accountColumns + `WHERE id = ?`

const getAccountByUsernameSQL = accountColumns + `WHERE username = ?`

// -----------------------------------------------------------------------------
// AGENCY REQUESTS
// -----------------------------------------------------------------------------

const requestColumns = `
SELECT q.id, q.account_id, q.agency_id, q.created, a.username, g.name AS agency_name
FROM agency_requests q
JOIN accounts a ON a.id = q.account_id
JOIN agencies g ON g.id = q.agency_id
`

const listRequestsSQL = requestColumns + `ORDER BY q.created, q.id`

const requestByAccountSQL = requestColumns + `WHERE q.account_id = ?`

const insertAddressSQL = `INSERT INTO addresses (id, city_id, street, house_number) VALUES (?, ?, ?, ?)`

const insertAgencySQL = `INSERT INTO agencies (id, name, phone_number, address_id) VALUES (?, ?, ?, ?)`

const insertRequestSQL = `INSERT INTO agency_requests (id, account_id, agency_id, created) VALUES (?, ?, ?, ?)`

const deleteRequestSQL = `DELETE FROM agency_requests WHERE id = ?`

const promoteAccountSQL = `UPDATE accounts SET agency_id = ? WHERE id = ?`

const agencyAddressSQL = `SELECT address_id FROM agencies WHERE id = ?`

const deleteAgencySQL = `DELETE FROM agencies WHERE id = ?`

const deleteAddressSQL = `DELETE FROM addresses WHERE id = ?`
